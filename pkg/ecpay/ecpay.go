// Package ecpay 绿界金流回调验签
package ecpay

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Config 绿界配置
type Config struct {
	MerchantID string
	HashKey    string
	HashIV     string
}

// 回调应答
const (
	ReplyOK    = "1|OK"
	ReplyError = "0|ERROR"
)

// Notification 付款结果通知
type Notification struct {
	MerchantID      string
	MerchantTradeNo string
	RtnCode         int
	RtnMsg          string
	TradeNo         string
	TradeAmt        int64
	PaymentDate     string
	PaymentType     string
	SimulatePaid    bool
	CustomField1    string
}

// Paid 是否付款成功
func (n *Notification) Paid() bool {
	return n.RtnCode == 1
}

// Client 绿界客户端
type Client struct {
	cfg Config
}

// NewClient 创建绿界客户端
func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// CheckMacValue 计算检查码
// 参数按键名不区分大小写排序，前后加上 HashKey 与 HashIV，经 URL 编码转小写后取 SHA256 大写十六进制
func (c *Client) CheckMacValue(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if strings.EqualFold(k, "CheckMacValue") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return strings.ToLower(keys[i]) < strings.ToLower(keys[j])
	})

	var b strings.Builder
	b.WriteString("HashKey=" + c.cfg.HashKey)
	for _, k := range keys {
		b.WriteString("&" + k + "=" + params.Get(k))
	}
	b.WriteString("&HashIV=" + c.cfg.HashIV)

	sum := sha256.Sum256([]byte(dotNetURLEncode(b.String())))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Verify 校验回调中的 CheckMacValue
func (c *Client) Verify(params url.Values) bool {
	got := strings.ToUpper(params.Get("CheckMacValue"))
	if got == "" {
		return false
	}
	want := c.CheckMacValue(params)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// ParseNotification 校验并解析付款结果通知
func (c *Client) ParseNotification(params url.Values) (*Notification, error) {
	if !c.Verify(params) {
		return nil, fmt.Errorf("CheckMacValue 校验失败")
	}
	if c.cfg.MerchantID != "" && params.Get("MerchantID") != c.cfg.MerchantID {
		return nil, fmt.Errorf("商店代号不符: %s", params.Get("MerchantID"))
	}

	rtnCode, err := strconv.Atoi(params.Get("RtnCode"))
	if err != nil {
		return nil, fmt.Errorf("RtnCode 格式不正确: %w", err)
	}
	n := &Notification{
		MerchantID:      params.Get("MerchantID"),
		MerchantTradeNo: params.Get("MerchantTradeNo"),
		RtnCode:         rtnCode,
		RtnMsg:          params.Get("RtnMsg"),
		TradeNo:         params.Get("TradeNo"),
		PaymentDate:     params.Get("PaymentDate"),
		PaymentType:     params.Get("PaymentType"),
		SimulatePaid:    params.Get("SimulatePaid") == "1",
		CustomField1:    params.Get("CustomField1"),
	}
	if amt := params.Get("TradeAmt"); amt != "" {
		if n.TradeAmt, err = strconv.ParseInt(amt, 10, 64); err != nil {
			return nil, fmt.Errorf("TradeAmt 格式不正确: %w", err)
		}
	}
	if n.MerchantTradeNo == "" {
		return nil, fmt.Errorf("缺少 MerchantTradeNo")
	}
	return n, nil
}

// Sign 为参数加上 CheckMacValue
func (c *Client) Sign(params url.Values) url.Values {
	signed := url.Values{}
	for k, v := range params {
		signed[k] = append([]string(nil), v...)
	}
	signed.Set("CheckMacValue", c.CheckMacValue(params))
	return signed
}

// dotNetReplacer 还原 .NET UrlEncode 不编码的字符
var dotNetReplacer = strings.NewReplacer(
	"%2d", "-",
	"%5f", "_",
	"%2e", ".",
	"%21", "!",
	"%2a", "*",
	"%28", "(",
	"%29", ")",
)

// dotNetURLEncode 与绿界文件一致的 URL 编码：空格为 +，结果转小写
func dotNetURLEncode(s string) string {
	encoded := strings.ToLower(url.QueryEscape(s))
	encoded = strings.ReplaceAll(encoded, "~", "%7e")
	return dotNetReplacer.Replace(encoded)
}
