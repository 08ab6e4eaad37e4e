package matcher

import (
	"sort"

	"github.com/address-cleaner/internal/normalizer"
	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
)

// Suggestion ứng viên gần nhất cho một chuỗi không khớp được
type Suggestion struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Scorer chấm điểm tương tự kết hợp Jaro-Winkler và Levenshtein.
// Chỉ dùng để gợi ý cho người review, không dùng để quyết định kết quả.
type Scorer struct {
	JWWeight  float64
	LevWeight float64
	MinScore  float64
}

// DefaultScorer trọng số mặc định
func DefaultScorer() Scorer {
	return Scorer{JWWeight: 0.6, LevWeight: 0.4, MinScore: 0.5}
}

// Similarity điểm tương tự trong [0, 1] giữa hai chuỗi đã fold
func (s Scorer) Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	jw := smetrics.JaroWinkler(a, b, 0.7, 4)

	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	lev := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
	if lev < 0 {
		lev = 0
	}

	total := s.JWWeight + s.LevWeight
	if total <= 0 {
		return jw
	}
	return (jw*s.JWWeight + lev*s.LevWeight) / total
}

// Rank trả về tối đa k ứng viên có điểm >= MinScore, điểm giảm dần
func (s Scorer) Rank(fragment string, candidates []string, honorifics []string, k int) []Suggestion {
	if k <= 0 || fragment == "" {
		return nil
	}
	folded := normalizer.Fold(StripHonorific(fragment, honorifics))

	var out []Suggestion
	for _, c := range candidates {
		score := s.Similarity(folded, normalizer.Fold(StripHonorific(c, honorifics)))
		if score < s.MinScore {
			continue
		}
		out = append(out, Suggestion{Name: c, Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}
