// Package mysql 提供数据访问层的初始化和全局数据库实例管理
// 负责建立 MySQL 连接、自动迁移表结构、初始化 Repository 层
package mysql

import (
	"fmt"

	"whispr_chat_server/internal/config"
	"whispr_chat_server/internal/dao/mysql/repository"
	"whispr_chat_server/internal/model"

	"go.uber.org/zap"
	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Init 初始化数据库连接并返回 Repository 层实例
// 连接或迁移失败直接 Fatal 退出，服务无数据库无法工作
func Init() *repository.Repositories {
	conf := config.GetConfig()

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		conf.MysqlConfig.User,
		conf.MysqlConfig.Password,
		conf.MysqlConfig.Host,
		conf.MysqlConfig.Port,
		conf.MysqlConfig.DatabaseName,
	)

	db, err := gorm.Open(mysqldriver.Open(dsn), &gorm.Config{})
	if err != nil {
		zap.L().Fatal(err.Error())
	}

	// AutoMigrate 不会删除已有字段或数据
	if err = AutoMigrate(db); err != nil {
		zap.L().Fatal(err.Error())
	}

	return repository.NewRepositories(db)
}

// AutoMigrate 迁移全部表结构
// 测试里用 sqlite 内存库时也走这里，保持两边表结构一致
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.UserProfile{},
		&model.Chat{},
		&model.Participant{},
		&model.Message{},
		&model.Reaction{},
		&model.ReadReceipt{},
		&model.VoiceNote{},
		&model.Translation{},
		&model.ForwardRecord{},
		&model.Call{},
		&model.CallParticipant{},
	)
}
