package email

import (
	"fmt"
	"net/smtp"

	"github.com/example/storefront/internal/domain/order"
)

// Service handles email sending via SMTP
type Service struct {
	host string
	port string
	from string
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
	}
}

// SendOrderOtp sends the verification code for a pending order
func (s *Service) SendOrderOtp(to string, number order.Number, code string) error {
	subject := fmt.Sprintf("【認証コード】ご注文の確認コード（注文番号: %s）", number)
	body := BuildOtpBody(number, code)
	return s.send(to, subject, body)
}

// SendOrderConfirmation sends an order confirmation email
func (s *Service) SendOrderConfirmation(to string, o *order.Order) error {
	subject := fmt.Sprintf("【注文確認】ご注文ありがとうございます（注文番号: %s）", o.Number)
	body := BuildOrderConfirmationBody(o)
	return s.send(to, subject, body)
}

// SendOrderShipped sends a shipping notice
func (s *Service) SendOrderShipped(to string, o *order.Order) error {
	subject := fmt.Sprintf("【発送完了】商品を発送しました（注文番号: %s）", o.Number)
	body := BuildOrderShippedBody(o)
	return s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}
