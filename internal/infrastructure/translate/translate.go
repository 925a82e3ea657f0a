// Package translate 封装外部翻译协作方的调用
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"whispr_chat_server/internal/config"
	"whispr_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

// Translator 翻译协作方接口，便于在测试中替换为桩实现
type Translator interface {
	// Translate 将 text 翻译到 targetLang（BCP-47 小写语言码，如 "es"）
	Translate(ctx context.Context, text string, targetLang string) (string, error)
}

// MarkedFallback 协作方不可用时的降级译文：原文前加语言标记
// 调用方据此可判断译文是否为降级产物（不落缓存）
func MarkedFallback(text string, targetLang string) string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(targetLang), text)
}

// HTTPTranslator 基于 MyMemory 风格 HTTP API 的翻译实现
type HTTPTranslator struct {
	endpoint   string
	sourceLang string
	client     *http.Client
}

// NewHTTPTranslator 根据配置构造翻译客户端
func NewHTTPTranslator(cfg *config.TranslateConfig) *HTTPTranslator {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	sourceLang := cfg.SourceLang
	if sourceLang == "" {
		sourceLang = "en"
	}
	return &HTTPTranslator{
		endpoint:   cfg.Endpoint,
		sourceLang: sourceLang,
		client:     &http.Client{Timeout: timeout},
	}
}

// mymemoryResponse 外部 API 的响应结构，只解析需要的字段
type mymemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus json.Number `json:"responseStatus"`
}

// Translate 调用外部服务翻译文本
// 任何网络或协议错误均返回 CodeUpstreamError，由上层决定降级策略
func (t *HTTPTranslator) Translate(ctx context.Context, text string, targetLang string) (string, error) {
	params := url.Values{}
	params.Set("q", text)
	params.Set("langpair", t.sourceLang+"|"+targetLang)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", errorx.Wrap(err, errorx.CodeUpstreamError, "构造翻译请求失败")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		zap.L().Warn("translate upstream unreachable", zap.Error(err))
		return "", errorx.Wrap(err, errorx.CodeUpstreamError, "翻译服务不可用")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errorx.Newf(errorx.CodeUpstreamError, "翻译服务返回状态码 %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errorx.Wrap(err, errorx.CodeUpstreamError, "读取翻译响应失败")
	}

	var mm mymemoryResponse
	if err := json.Unmarshal(body, &mm); err != nil {
		return "", errorx.Wrap(err, errorx.CodeUpstreamError, "解析翻译响应失败")
	}
	if mm.ResponseData.TranslatedText == "" {
		return "", errorx.New(errorx.CodeUpstreamError, "翻译服务返回空译文")
	}
	return mm.ResponseData.TranslatedText, nil
}
