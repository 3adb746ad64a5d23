// Package handler 按业务划分子包存放 HTTP Handler
//
// 本文件让 `swag init --dir ./internal/handler` 能把 internal/handler 视为有效的 Go 包。
package handler
