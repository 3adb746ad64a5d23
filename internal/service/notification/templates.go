package notification

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/dumeirei/homestay-booking-backend/internal/models"
)

// TemplateData 模板可用的变量
type TemplateData struct {
	BookingNo       string
	GuestName       string
	RoomTypeName    string
	CheckInDate     string
	CheckOutDate    string
	Nights          int
	Adults          int
	Children        int
	TotalAmount     int64
	AddonsTotal     int64
	FinalAmount     int64
	AmountDue       int64
	GrandTotal      int64
	PaymentMethod   string
	IsDeposit       bool
	PaymentDeadline string
	CancelReason    string
	HotelName       string
	HotelPhone      string
	BankName        string
	BankAccount     string
	BankAccountName string
	Code            string
	ExpiresMinutes  int
}

// Variables 模板变量名称，供后台编辑时参考
var Variables = []string{
	"BookingNo", "GuestName", "RoomTypeName", "CheckInDate", "CheckOutDate", "Nights",
	"Adults", "Children", "TotalAmount", "AddonsTotal", "FinalAmount", "AmountDue", "GrandTotal",
	"PaymentMethod", "IsDeposit", "PaymentDeadline", "CancelReason",
	"HotelName", "HotelPhone", "BankName", "BankAccount", "BankAccountName",
}

// NewTemplateData 以订单填充模板变量，付款期限按营业时区显示
func NewTemplateData(b *models.Booking, loc *time.Location) *TemplateData {
	if loc == nil {
		loc = time.UTC
	}
	data := &TemplateData{
		BookingNo:     b.BookingNo,
		GuestName:     b.GuestName,
		RoomTypeName:  b.RoomTypeName,
		CheckInDate:   b.CheckInDate,
		CheckOutDate:  b.CheckOutDate,
		Nights:        b.Nights,
		Adults:        b.Adults,
		Children:      b.Children,
		TotalAmount:   b.TotalAmount,
		AddonsTotal:   b.AddonsTotal,
		FinalAmount:   b.FinalAmount,
		AmountDue:     b.AmountDue,
		GrandTotal:    b.GrandTotal(),
		PaymentMethod: b.PaymentMethod,
		IsDeposit:     b.IsDeposit(),
		CancelReason:  b.CancelReason,
	}
	if b.PaymentDeadline != nil {
		data.PaymentDeadline = b.PaymentDeadline.In(loc).Format("2006-01-02 15:04")
	}
	return data
}

var funcs = template.FuncMap{
	"money": func(v int64) string {
		s := fmt.Sprintf("%d", v)
		neg := strings.HasPrefix(s, "-")
		s = strings.TrimPrefix(s, "-")
		var out []byte
		for i := range s {
			if i > 0 && (len(s)-i)%3 == 0 {
				out = append(out, ',')
			}
			out = append(out, s[i])
		}
		if neg {
			return "-NT$" + string(out)
		}
		return "NT$" + string(out)
	},
}

// Render 渲染模板的标题与正文
func Render(tpl *models.EmailTemplate, data *TemplateData) (subject, body string, err error) {
	subject, err = execute(tpl.TemplateKey+".subject", tpl.Subject, data)
	if err != nil {
		return "", "", err
	}
	body, err = execute(tpl.TemplateKey+".body", tpl.Body, data)
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(subject), body, nil
}

// Validate 检查模板语法与变量
func Validate(tpl *models.EmailTemplate) error {
	_, _, err := Render(tpl, &TemplateData{})
	return err
}

func execute(name, text string, data *TemplateData) (string, error) {
	t, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("模板 %s 解析失败: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("模板 %s 渲染失败: %w", name, err)
	}
	return buf.String(), nil
}

// DefaultTemplates 初始邮件模板
func DefaultTemplates() []*models.EmailTemplate {
	list := []*models.EmailTemplate{
		{
			TemplateKey: models.TemplateBookingConfirmation,
			Name:        "订房确认",
			Subject:     "【{{.HotelName}}】订房确认 {{.BookingNo}}",
			Body: `{{.GuestName}} 您好，

感谢您的预订，订单资讯如下：
订单编号：{{.BookingNo}}
房型：{{.RoomTypeName}}
入住：{{.CheckInDate}}　退房：{{.CheckOutDate}}（{{.Nights}} 晚）
房费：{{money .TotalAmount}}
{{if .AddonsTotal}}加购：{{money .AddonsTotal}}
{{end}}应付金额：{{money .AmountDue}}{{if .IsDeposit}}（订金）{{end}}
{{if eq .PaymentMethod "transfer"}}
请于 {{.PaymentDeadline}} 前转账至：
{{.BankName}} {{.BankAccount}} {{.BankAccountName}}
逾期未付款订单将自动取消。
{{end}}
{{.HotelName}} {{.HotelPhone}}
`,
			IsEnabled: true,
		},
		{
			TemplateKey: models.TemplatePaymentReminder,
			Name:        "付款提醒",
			Subject:     "【{{.HotelName}}】付款提醒 {{.BookingNo}}",
			Body: `{{.GuestName}} 您好，

您的订单 {{.BookingNo}} 尚未完成付款，付款期限为 {{.PaymentDeadline}}。
应付金额：{{money .AmountDue}}
转账资讯：{{.BankName}} {{.BankAccount}} {{.BankAccountName}}

{{.HotelName}} {{.HotelPhone}}
`,
			IsEnabled:  true,
			DaysOffset: -1,
		},
		{
			TemplateKey: models.TemplatePaymentConfirmed,
			Name:        "付款确认",
			Subject:     "【{{.HotelName}}】已收到您的付款 {{.BookingNo}}",
			Body: `{{.GuestName}} 您好，

我们已收到订单 {{.BookingNo}} 的付款，期待您 {{.CheckInDate}} 的光临。

{{.HotelName}} {{.HotelPhone}}
`,
			IsEnabled: true,
		},
		{
			TemplateKey: models.TemplateCheckinReminder,
			Name:        "入住提醒",
			Subject:     "【{{.HotelName}}】入住提醒 {{.CheckInDate}}",
			Body: `{{.GuestName}} 您好，

提醒您将于 {{.CheckInDate}} 入住{{.RoomTypeName}}，共 {{.Nights}} 晚。
如有任何问题请来电 {{.HotelPhone}}。

{{.HotelName}}
`,
			IsEnabled:  true,
			DaysOffset: -1,
		},
		{
			TemplateKey: models.TemplateFeedbackRequest,
			Name:        "住宿回馈",
			Subject:     "【{{.HotelName}}】感谢您的入住",
			Body: `{{.GuestName}} 您好，

感谢您于 {{.CheckInDate}} 至 {{.CheckOutDate}} 的入住，欢迎回信分享您的住宿体验。

{{.HotelName}}
`,
			IsEnabled:  true,
			DaysOffset: 1,
		},
		{
			TemplateKey: models.TemplateCancelNotice,
			Name:        "取消通知",
			Subject:     "【{{.HotelName}}】订单已取消 {{.BookingNo}}",
			Body: `{{.GuestName}} 您好，

您的订单 {{.BookingNo}}（{{.CheckInDate}} 入住）已取消。
{{if eq .CancelReason "payment_expired"}}原因：超过付款期限未完成付款。
{{end}}
{{.HotelName}} {{.HotelPhone}}
`,
			IsEnabled: true,
		},
		{
			TemplateKey: models.TemplateErasureCode,
			Name:        "资料删除验证码",
			Subject:     "【{{.HotelName}}】资料删除验证码",
			Body: `您好，

您的验证码为 {{.Code}}，{{.ExpiresMinutes}} 分钟内有效。
确认后，此邮箱下的订单个人资料将被删除且无法复原。

{{.HotelName}}
`,
			IsEnabled: true,
		},
	}
	for _, tpl := range list {
		tpl.Variables = append([]string(nil), Variables...)
	}
	return list
}
