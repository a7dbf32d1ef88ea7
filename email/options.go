package email

import (
	"mimetree.dev/email/codec"
	"mimetree.dev/email/param"
	"mimetree.dev/third_party/imf"
)

// ParserOptions bundles every compliance/tolerance/warning knob spec §6
// mandates: address_compliance, parameter_compliance, rfc2047_compliance,
// allow_addresses_without_domain, and a single warning_callback taking
// (offset, code, context). The zero value is fully Loose/tolerant and
// drops all warnings, matching this module's long-standing defaults.
type ParserOptions struct {
	AddressCompliance           imf.Compliance
	ParameterCompliance         param.Compliance
	RFC2047Compliance           codec.Compliance
	AllowAddressesWithoutDomain bool
	Warn                        func(offset int64, code, context string)
}

func (o ParserOptions) warn(offset int64, code, context string) {
	if o.Warn != nil {
		o.Warn(offset, code, context)
	}
}

// addressOptions translates o into the imf package's option shape for a
// header value living at offset.
func (o ParserOptions) addressOptions(offset int64) imf.AddressOptions {
	return imf.AddressOptions{
		Compliance:                  o.AddressCompliance,
		AllowAddressesWithoutDomain: o.AllowAddressesWithoutDomain,
		RFC2047:                     o.RFC2047Compliance,
		Offset:                      offset,
		Warn:                        o.Warn,
	}
}

// paramOptions translates o into the param package's option shape for a
// header value living at offset.
func (o ParserOptions) paramOptions(offset int64) param.Options {
	return param.Options{
		BaseOffset: offset,
		Compliance: o.ParameterCompliance,
		RFC2047:    o.RFC2047Compliance,
		WarnFunc:   o.Warn,
	}
}
