package safety

import (
	"regexp"
	"strings"

	"github.com/xaenox/mind-coach/internal/models"
)

// DefaultKeywords is used when no crisis keywords are configured.
var DefaultKeywords = []string{
	"suicide",
	"suicidal",
	"kill myself",
	"end my life",
	"want to die",
	"better off dead",
	"no reason to live",
	"self harm",
	"self-harm",
	"hurt myself",
	"cut myself",
	"overdose",
}

var (
	exclamationBurst = regexp.MustCompile(`!{2,}`)
	intensityWords   = []string{"can't", "can’t", "cannot", "desperate", "overwhelmed", "breaking"}
)

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func matchKeywords(text string, keywords []string) []string {
	var hits []string
	for _, k := range keywords {
		if k != "" && strings.Contains(text, k) {
			hits = append(hits, k)
		}
	}
	return hits
}

func hasIntensityMarker(text string) bool {
	if exclamationBurst.MatchString(text) {
		return true
	}
	for _, w := range intensityWords {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

type indicatorRule struct {
	needles []string
	set     func(*models.CrisisIndicators)
}

var indicatorRules = []indicatorRule{
	{[]string{"suicid", "self-harm", "self harm", "kill myself", "end my life", "want to die"}, func(c *models.CrisisIndicators) { c.SuicidalIdeation = true }},
	{[]string{"self-harm", "self harm", "self-injur", "cutting", "cut myself", "hurt myself"}, func(c *models.CrisisIndicators) { c.SelfHarm = true }},
	{[]string{"substance", "alcohol", "drug", "overdose", "drinking"}, func(c *models.CrisisIndicators) { c.SubstanceAbuse = true }},
	{[]string{"domestic", "violence", "abuse", "partner hit", "unsafe at home"}, func(c *models.CrisisIndicators) { c.DomesticViolence = true }},
	{[]string{"psychos", "hallucinat", "delusion", "hearing voices"}, func(c *models.CrisisIndicators) { c.Psychosis = true }},
	{[]string{"depress", "hopeless"}, func(c *models.CrisisIndicators) { c.SevereDepression = true }},
	{[]string{"panic", "anxiety attack"}, func(c *models.CrisisIndicators) { c.Panic = true }},
}

// applyIndicators sets risk flags for every indicator that mentions one of the rule needles.
func applyIndicators(c *models.CrisisIndicators, indicators []string) {
	for _, ind := range indicators {
		ind = normalize(ind)
		for _, rule := range indicatorRules {
			for _, n := range rule.needles {
				if strings.Contains(ind, n) {
					rule.set(c)
					break
				}
			}
		}
	}
}
