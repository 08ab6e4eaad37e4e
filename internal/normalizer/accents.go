package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var reSpaces = regexp.MustCompile(`\s+`)

// StripDiacritics loại bỏ dấu tiếng Việt một cách an toàn (giữ nguyên đ/Đ)
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	out, _, _ := transform.String(t, s)
	return out
}

// isMn kiểm tra xem rune có phải là diacritic mark không
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// Fold chuyển về dạng không dấu, lowercase để so khớp (đ → d)
func Fold(s string) string {
	return strings.ToLower(unidecode.Unidecode(norm.NFC.String(s)))
}

// CleanQuery chuẩn hóa địa chỉ đầu vào: NFC, gộp khoảng trắng, trim.
// Không đổi nội dung chữ.
func CleanQuery(raw string) string {
	s := norm.NFC.String(raw)
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}
