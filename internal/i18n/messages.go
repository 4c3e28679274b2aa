// Package i18n holds the user-facing messages of the billing operations in
// English and Bengali.
package i18n

import (
	"context"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys
const (
	MsgStatusChanged        = "Invoice status changed from %s to %s"
	MsgConfirmationRequired = "Confirmation required: %s"
	MsgValidationFailed     = "The request could not be processed: %s"
	MsgInvoiceNotFound      = "Invoice %s was not found"
	MsgClientNotFound       = "Client %s was not found"
	MsgPermissionDenied     = "You do not have permission to perform this action (%s)"
	MsgPersistenceFailed    = "The change could not be saved. Please try again."
	MsgVerificationFailed   = "The invoice was saved but the stored total does not match. Please review it."
	MsgInvoiceUpdated       = "Invoice updated. New total: %s"
	MsgInvoiceCreated       = "Invoice %s created"
	MsgBatchSummary         = "%d invoices recalculated, %d failed"
	MsgCalculationFailed    = "Invoice totals could not be calculated"
	MsgUnexpectedError      = "An unexpected error occurred"
	MsgNoStatusChange       = "Invoice status is already %s"
)

var (
	// Bengali is the second supported locale
	Bengali = language.Bengali
	// Supported lists the locales in preference order; the first is the fallback.
	Supported = []language.Tag{language.English, language.Bengali}

	matcher  = language.NewMatcher(Supported)
	cat      = mustBuildCatalog()
	fallback = Supported[0]
)

// SetFallback changes the locale used when a request names none. Call it
// once at startup.
func SetFallback(tag language.Tag) {
	fallback = tag
}

var statusLabels = map[string][2]string{
	"draft":          {"Draft", "খসড়া"},
	"sent":           {"Sent", "পাঠানো হয়েছে"},
	"paid":           {"Paid", "পরিশোধিত"},
	"overdue":        {"Overdue", "মেয়াদোত্তীর্ণ"},
	"cancelled":      {"Cancelled", "বাতিল"},
	"partially_paid": {"Partially paid", "আংশিক পরিশোধিত"},
	"processing":     {"Processing", "প্রক্রিয়াধীন"},
}

func mustBuildCatalog() *catalog.Builder {
	b, err := buildCatalog()
	if err != nil {
		panic("i18n: " + err.Error())
	}
	return b
}

func buildCatalog() (*catalog.Builder, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))

	bn := map[string]string{
		MsgStatusChanged:        "ইনভয়েসের অবস্থা %s থেকে %s এ পরিবর্তিত হয়েছে",
		MsgConfirmationRequired: "নিশ্চিতকরণ প্রয়োজন: %s",
		MsgValidationFailed:     "অনুরোধটি প্রক্রিয়া করা যায়নি: %s",
		MsgInvoiceNotFound:      "ইনভয়েস %s পাওয়া যায়নি",
		MsgClientNotFound:       "ক্লায়েন্ট %s পাওয়া যায়নি",
		MsgPermissionDenied:     "এই কাজটি করার অনুমতি আপনার নেই (%s)",
		MsgPersistenceFailed:    "পরিবর্তনটি সংরক্ষণ করা যায়নি। আবার চেষ্টা করুন।",
		MsgVerificationFailed:   "ইনভয়েস সংরক্ষিত হয়েছে কিন্তু সংরক্ষিত মোট মিলছে না। অনুগ্রহ করে পরীক্ষা করুন।",
		MsgInvoiceUpdated:       "ইনভয়েস হালনাগাদ হয়েছে। নতুন মোট: %s",
		MsgInvoiceCreated:       "ইনভয়েস %s তৈরি হয়েছে",
		MsgBatchSummary:         "%d টি ইনভয়েস পুনর্গণনা হয়েছে, %d টি ব্যর্থ",
		MsgCalculationFailed:    "ইনভয়েসের মোট হিসাব করা যায়নি",
		MsgUnexpectedError:      "একটি অপ্রত্যাশিত ত্রুটি ঘটেছে",
		MsgNoStatusChange:       "ইনভয়েসের অবস্থা ইতিমধ্যে %s",
	}
	for key, translation := range bn {
		// keys double as the English text
		if err := b.SetString(language.English, key, key); err != nil {
			return nil, fmt.Errorf("set %q (en): %w", key, err)
		}
		if err := b.SetString(language.Bengali, key, translation); err != nil {
			return nil, fmt.Errorf("set %q (bn): %w", key, err)
		}
	}
	return b, nil
}

// Match picks the best supported locale for an Accept-Language header. A
// header naming no supported language gets the fallback.
func Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	return Supported[idx]
}

// Parse resolves a configured locale name such as "en" or "bn". Unknown or
// unsupported names resolve to the first supported locale.
func Parse(name string) language.Tag {
	tag, err := language.Parse(name)
	if err != nil {
		return Supported[0]
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return Supported[0]
	}
	return Supported[idx]
}

// Printer returns a printer for tag backed by the billing catalog.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(cat))
}

// Sprintf formats a message key in the given locale.
func Sprintf(tag language.Tag, key string, args ...interface{}) string {
	return Printer(tag).Sprintf(key, args...)
}

// StatusLabel returns the display name of an invoice status.
func StatusLabel(tag language.Tag, status string) string {
	labels, ok := statusLabels[status]
	if !ok {
		return status
	}
	if tag == language.Bengali {
		return labels[1]
	}
	return labels[0]
}

type localeKey struct{}

// WithLocale stores the request locale in ctx.
func WithLocale(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, localeKey{}, tag)
}

// FromContext returns the request locale, the fallback when none was set.
func FromContext(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(localeKey{}).(language.Tag); ok {
		return tag
	}
	return fallback
}
