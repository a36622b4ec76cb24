// Package locale resolves the caller's language and renders the user-facing
// strings (status labels, error messages) through an x/text message catalog.
package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var supported = []language.Tag{
	language.English, // 先頭がフォールバック
	language.Vietnamese,
}

var (
	matcher = language.NewMatcher(supported)
	cat     = buildCatalog()
)

type entry struct{ en, vi string }

// キーは status.<status> / error.<CODE>
var entries = map[string]entry{
	"status.pending":  {"awaiting approval", "Chờ duyệt"},
	"status.approved": {"approved", "Đã duyệt"},
	"status.rejected": {"rejected", "Từ chối"},
	"status.borrowed": {"on loan", "Đang mượn"},
	"status.returned": {"returned", "Đã trả"},
	"status.overdue":  {"overdue", "Quá hạn"},
	"status.unknown":  {"unknown", "Không xác định"},

	"error.INVALID_ARGUMENT":          {"The request is invalid.", "Yêu cầu không hợp lệ."},
	"error.NOT_FOUND":                 {"The requested item does not exist.", "Dữ liệu không tồn tại."},
	"error.CONFLICT":                  {"The request conflicts with the current state.", "Yêu cầu xung đột với dữ liệu hiện tại."},
	"error.OUT_OF_STOCK":              {"No copies of this book are available.", "Sách đã hết, không thể mượn."},
	"error.DUPLICATE_PENDING_REQUEST": {"You already have a pending request for this book.", "Bạn đã có yêu cầu mượn sách này đang chờ duyệt."},
	"error.INVALID_STATE_TRANSITION":  {"This request has already been processed.", "Yêu cầu này đã được xử lý."},
	"error.ALREADY_RETURNED":          {"This book has already been returned.", "Sách đã được trả rồi."},
	"error.UNAUTHORIZED":              {"Please sign in to continue.", "Vui lòng đăng nhập để tiếp tục."},
	"error.FORBIDDEN":                 {"You are not allowed to do this.", "Bạn không có quyền thực hiện thao tác này."},
	"error.TRANSACTION_FAILURE":       {"The operation could not be completed, please retry.", "Không thể hoàn tất thao tác, vui lòng thử lại."},
	"error.INTERNAL":                  {"Server error, please try again later.", "Lỗi server, vui lòng thử lại sau."},
}

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, e := range entries {
		_ = b.SetString(language.English, key, e.en)
		_ = b.SetString(language.Vietnamese, key, e.vi)
	}
	return b
}

// Match picks the supported language for an Accept-Language header value.
func Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return supported[0]
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return supported[0]
	}
	return supported[idx]
}

func printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(cat))
}

// Text returns the translation for key, or fallback when the key is unknown.
func Text(tag language.Tag, key, fallback string) string {
	if _, ok := entries[key]; !ok {
		return fallback
	}
	return printer(tag).Sprintf(key)
}

func StatusLabel(tag language.Tag, status string) string {
	if _, ok := entries["status."+status]; !ok {
		status = "unknown"
	}
	return Text(tag, "status."+status, status)
}

func ErrorMessage(tag language.Tag, code string) string {
	return Text(tag, "error."+code, Text(tag, "error.INTERNAL", code))
}
