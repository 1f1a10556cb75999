package templates

import (
	"time"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("2006-01-02 15:04 MST")
	}
}

func WithCompany(companyName, appName, supportURL string) Option {
	return func(d *EmailData) {
		d.CompanyName = companyName
		d.AppName = appName
		d.SupportURL = supportURL
	}
}

func WithProduct(id int64, name string, price int64, sellerName string) Option {
	return func(d *EmailData) {
		d.ProductID = id
		d.ProductName = name
		d.Price = price
		d.SellerName = sellerName
	}
}

// NewBaseEmailData fills the recipient fields and applies opts.
func NewBaseEmailData(typ, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewPurchaseCompleteData(name, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(PurchaseComplete, name, email, opts...))
}
