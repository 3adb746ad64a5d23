// Package qrcode 提供订单二维码生成功能
package qrcode

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

// Generator 二维码生成器
type Generator struct {
	size  int
	level qrcode.RecoveryLevel
}

// Option 生成器选项
type Option func(*Generator)

// WithSize 设置二维码尺寸（像素）
func WithSize(size int) Option {
	return func(g *Generator) {
		g.size = size
	}
}

// WithHighRecovery 使用 25% 纠错，适合打印在入住单上
func WithHighRecovery() Option {
	return func(g *Generator) {
		g.level = qrcode.High
	}
}

// NewGenerator 创建二维码生成器
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		size:  256,
		level: qrcode.Medium,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GeneratePNG 生成 PNG 格式二维码
func (g *Generator) GeneratePNG(content string) ([]byte, error) {
	data, err := qrcode.Encode(content, g.level, g.size)
	if err != nil {
		return nil, fmt.Errorf("创建二维码失败: %w", err)
	}
	return data, nil
}

// GenerateDataURL 生成 Data URL 格式的二维码，可直接嵌入邮件
func (g *Generator) GenerateDataURL(content string) (string, error) {
	data, err := g.GeneratePNG(content)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// BookingURL 订单查询链接，二维码内容
func BookingURL(baseURL, bookingNo string) string {
	return strings.TrimRight(baseURL, "/") + "/bookings/" + url.PathEscape(bookingNo)
}
