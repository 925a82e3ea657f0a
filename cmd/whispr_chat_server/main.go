package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"whispr_chat_server/internal/config"
	dao "whispr_chat_server/internal/dao/mysql"
	myredis "whispr_chat_server/internal/dao/redis"
	"whispr_chat_server/internal/handler"
	"whispr_chat_server/internal/https_server"
	"whispr_chat_server/internal/infrastructure/logger"
	"whispr_chat_server/internal/infrastructure/translate"
	"whispr_chat_server/internal/service"
	"whispr_chat_server/internal/service/presence"
	"whispr_chat_server/internal/service/relay"
	"whispr_chat_server/pkg/constants"
	"whispr_chat_server/pkg/util/jwt"
	"whispr_chat_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, "dev"); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	zap.L().Info("日志初始化成功")

	// 3. 初始化雪花节点（消息 ID 依赖，必须先于 Service 层）
	snowflake.Init()
	zap.L().Info("雪花节点初始化成功")

	// 4. 初始化数据库
	repos := dao.Init()
	zap.L().Info("数据库初始化成功")

	// 5. 初始化 Redis
	myredis.Init()
	zap.L().Info("Redis 初始化成功")

	// 6. 初始化 JWT
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry, conf.JWTConfig.RefreshTokenExpiry)
	zap.L().Info("JWT 初始化成功")

	// 7. 初始化参数校验翻译器
	if err := handler.InitTrans("zh"); err != nil {
		zap.L().Fatal("校验翻译器初始化失败", zap.Error(err))
	}

	// 8. 初始化在线状态跟踪器（Service 层和实时网关共用）
	tracker := presence.NewTracker()

	// 9. 初始化 Service 层 (依赖注入)
	translator := translate.NewHTTPTranslator(&conf.TranslateConfig)
	service.InitServices(repos, myredis.GetCacheService(), translator, tracker)
	zap.L().Info("Service 层初始化成功")

	// 10. 初始化实时网关：注册表 + 分发器 + 事件代理
	maxConns := conf.WebsocketConfig.MaxConnections
	if maxConns <= 0 {
		maxConns = constants.WS_DEFAULT_MAX_CONNECTIONS
	}
	registry := relay.NewRegistry(maxConns)
	dispatcher := relay.NewDispatcher(registry, tracker, repos, service.Svc)
	relay.GlobalDispatcher = dispatcher

	if conf.KafkaConfig.MessageMode == "kafka" {
		kafkaClient := relay.NewKafkaClient()
		kafkaClient.KafkaInit()
		relay.GlobalBroker = relay.NewKafkaBroker(kafkaClient, dispatcher)
	} else {
		relay.GlobalBroker = relay.NewChannelBroker(dispatcher)
	}
	go relay.GlobalBroker.Start()
	zap.L().Info("实时网关初始化成功", zap.String("mode", conf.KafkaConfig.MessageMode))

	// 11. 初始化 HTTP 服务器
	https_server.Init()
	zap.L().Info("HTTP 服务器初始化成功")

	// 12. 启动服务
	host := conf.MainConfig.Host
	port := conf.MainConfig.Port
	go func() {
		if err := https_server.GE.Run(fmt.Sprintf("%s:%d", host, port)); err != nil {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("关闭服务器...")
	relay.GlobalBroker.Close()
	zap.L().Info("服务器已关闭")
}
