package locale_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"LIBRA-backend/internal/platform/locale"
)

func TestMatch(t *testing.T) {
	assert.Equal(t, language.English, locale.Match(""))
	assert.Equal(t, language.English, locale.Match("en-US,en;q=0.9"))
	assert.Equal(t, language.Vietnamese, locale.Match("vi-VN,vi;q=0.9,en;q=0.5"))
	assert.Equal(t, language.English, locale.Match("de-DE"))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "awaiting approval", locale.StatusLabel(language.English, "pending"))
	assert.Equal(t, "Chờ duyệt", locale.StatusLabel(language.Vietnamese, "pending"))
	assert.Equal(t, "Quá hạn", locale.StatusLabel(language.Vietnamese, "overdue"))
	assert.Equal(t, "unknown", locale.StatusLabel(language.English, "lost"))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Sách đã hết, không thể mượn.", locale.ErrorMessage(language.Vietnamese, "OUT_OF_STOCK"))
	assert.Equal(t, "Server error, please try again later.", locale.ErrorMessage(language.English, "SOMETHING_NEW"))
}
