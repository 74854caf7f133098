package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"time"
)

const sendGridURL = "https://api.sendgrid.com/v3/mail/send"

type EmailSender struct {
	apiKey      string
	senderEmail string
	senderName  string
	frontend    string
	endpoint    string
	client      *http.Client
}

func NewEmailSender(apiKey, senderEmail, frontend string) *EmailSender {
	return &EmailSender{
		apiKey:      apiKey,
		senderEmail: senderEmail,
		senderName:  "Learning Platform",
		frontend:    frontend,
		endpoint:    sendGridURL,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

// WithEndpoint points the sender at another SendGrid-compatible URL.
func (s *EmailSender) WithEndpoint(endpoint string) *EmailSender {
	s.endpoint = endpoint
	return s
}

// Enabled is false when no API key is configured; mail is then skipped.
func (s *EmailSender) Enabled() bool { return s.apiKey != "" }

// SendGrid request format
type sgEmail struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}
type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}
type sgPersonalization struct {
	To []sgEmail `json:"to"`
}
type sgRequest struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgEmail             `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

func (s *EmailSender) SendVerificationEmail(ctx context.Context, toEmail, name, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.frontend, url.QueryEscape(token))
	body := fmt.Sprintf(`<html><body>
<h3>Здравствуйте, %s!</h3>
<p>Подтвердите адрес электронной почты, чтобы начать обучение.</p>
<p><a href="%s">Подтвердить email</a></p>
<p>Ссылка действительна 24 часа.</p>
</body></html>`, html.EscapeString(name), link)
	return s.send(ctx, toEmail, "Подтверждение email", body)
}

func (s *EmailSender) SendResetEmail(ctx context.Context, toEmail, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.frontend, url.QueryEscape(token))
	body := fmt.Sprintf(`<html><body>
<h3>Сброс пароля</h3>
<p>Вы запросили сброс пароля. Перейдите по ссылке, чтобы установить новый пароль.</p>
<p><a href="%s">Сбросить пароль</a></p>
<p>Если вы не запрашивали сброс пароля, просто проигнорируйте это письмо.</p>
</body></html>`, link)
	return s.send(ctx, toEmail, "Восстановление пароля", body)
}

func (s *EmailSender) send(ctx context.Context, toEmail, subject, htmlBody string) error {
	if !s.Enabled() {
		return nil
	}

	payload := sgRequest{
		Personalizations: []sgPersonalization{{To: []sgEmail{{Email: toEmail}}}},
		From:             sgEmail{Email: s.senderEmail, Name: s.senderName},
		Subject:          subject,
		Content:          []sgContent{{Type: "text/html", Value: htmlBody}},
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// SendGrid возвращает 202 даже при успехе
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sendgrid error: status=%d body=%s", resp.StatusCode, body)
	}
	return nil
}
