package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

var templates = template.Must(template.New("mail").Parse(`
{{define "welcome"}}<p>Hi {{.Name}},</p>
<p>Welcome to NEET Prep! Start with a subject diagnostic to find where you stand, then move on to mock-test cycle 1.</p>
<p>All the best for NEET {{.TargetYear}}.</p>{{end}}

{{define "receipt"}}<p>Hi {{.Name}},</p>
<p>We received your payment of <strong>{{.Amount}}</strong> for <strong>{{.Plan}}</strong>.</p>
<p>Payment ID: {{.PaymentID}}<br>Order ID: {{.OrderID}}</p>
<p>All mock-test cycles are now unlocked for you.</p>{{end}}

{{define "followup"}}<p>Hi {{.Name}},</p>
<p>We have not seen you for {{.Days}} days. A short breathing ritual and one mock test today keep the streak alive.</p>{{end}}
`))

type WelcomeData struct {
	Name       string
	TargetYear int
}

type ReceiptData struct {
	Name      string
	Plan      string
	Amount    string
	PaymentID string
	OrderID   string
}

type FollowupData struct {
	Name string
	Days int
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", name, err)
	}
	return buf.String(), nil
}

func Welcome(to string, d WelcomeData) (Message, error) {
	html, err := render("welcome", d)
	return Message{To: to, Subject: "Welcome to NEET Prep", HTML: html, Kind: "welcome"}, err
}

func Receipt(to string, d ReceiptData) (Message, error) {
	html, err := render("receipt", d)
	return Message{To: to, Subject: "Payment received", HTML: html, Kind: "receipt"}, err
}

func Followup(to string, d FollowupData) (Message, error) {
	html, err := render("followup", d)
	return Message{To: to, Subject: "Your NEET prep misses you", HTML: html, Kind: "followup"}, err
}
