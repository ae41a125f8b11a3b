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
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithCompany(name string) Option { return func(d *EmailData) { d.CompanyName = name } }
func WithLoginURL(url string) Option { return func(d *EmailData) { d.LoginURL = url } }

// NewEmailData fills the recipient fields, then applies opts.
func NewEmailData(typ, name, email string, opts ...Option) EmailData {
	d := EmailData{Name: name, Email: email, Type: typ}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}
