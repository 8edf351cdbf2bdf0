// Package manipulation implements the input scorer and principal
// authentication check of §4.D: a fixed set of ten pattern-kind heuristics
// folded into an overall score and threat level, plus cosine-similarity
// authentication against a declared principal's trust profile.
package manipulation

import (
	"math"
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
	"gonum.org/v1/gonum/floats"
)

// Kind is one of the fixed pattern kinds named in §4.D.
type Kind string

const (
	PromptInjection           Kind = "prompt-injection"
	Gaslighting                Kind = "gaslighting"
	FalseAuthority             Kind = "false-authority"
	SocialEngineering          Kind = "social-engineering"
	PromptInjectionObfuscated  Kind = "prompt-injection-obfuscated"
	DependencyExploit          Kind = "dependency-exploit"
	FearAppeal                 Kind = "fear-appeal"
	RewardAppeal                Kind = "reward-appeal"
	Deception                  Kind = "deception"
	Distraction                 Kind = "distraction"
)

// AllKinds lists the fixed pattern-kind set in a stable order.
var AllKinds = []Kind{
	PromptInjection, Gaslighting, FalseAuthority, SocialEngineering,
	PromptInjectionObfuscated, DependencyExploit, FearAppeal, RewardAppeal,
	Deception, Distraction,
}

// Threat is one of the five threat levels of §4.D.
type Threat string

const (
	None     Threat = "none"
	Low      Threat = "low"
	Medium   Threat = "medium"
	High     Threat = "high"
	Critical Threat = "critical"
)

// ClassifyThreat maps a bounded score to its threat level per the fixed
// table in §4.D.
func ClassifyThreat(score float64) Threat {
	switch {
	case score < 0.2:
		return None
	case score < 0.4:
		return Low
	case score < 0.6:
		return Medium
	case score < 0.8:
		return High
	default:
		return Critical
	}
}

// Report is the analyze() result of §4.D.
type Report struct {
	Score         float64
	Threat        Threat
	Patterns      map[Kind]float64
	Authenticated bool
}

// Principal names a declared privileged caller and the trust profile its
// authenticated requests are expected to resemble (§4.D authentication).
type Principal struct {
	Name         string
	TrustProfile map[string]float64
}

// DefaultAuthThreshold is the configured cosine-similarity floor for
// authentication (§6 PRINCIPAL_THRESHOLD default).
const DefaultAuthThreshold = 0.7

var zeroWidthRunes = map[rune]bool{
	'​': true, // zero width space
	'‌': true, // zero width non-joiner
	'‍': true, // zero width joiner
	0xFEFF: true, // zero width no-break space
}

type heuristic struct {
	kind Kind
	re   *regexp2.Regexp
}

var heuristics = buildHeuristics()

func buildHeuristics() []heuristic {
	mk := func(kind Kind, pattern string) heuristic {
		return heuristic{kind: kind, re: regexp2.MustCompile(pattern, regexp2.IgnoreCase)}
	}
	return []heuristic{
		mk(PromptInjection, `\b(ignore|disregard|forget)\b[^.?!]{0,40}\b(previous|prior|above|earlier)\b[^.?!]{0,40}\b(instructions?|prompt|rules?)\b`),
		mk(PromptInjection, `\b(reveal|show|print|leak)\b[^.?!]{0,30}\b(system prompt|hidden instructions?|internal rules?)\b`),
		mk(Gaslighting, `\byou('re| are) (wrong|mistaken|confused|imagining)\b`),
		mk(Gaslighting, `\bthat never happened\b|\byou always (do|say) this\b`),
		mk(FalseAuthority, `\bas (your|the) (developer|creator|admin|administrator|owner)\b`),
		mk(FalseAuthority, `\bi (have|hold) (root|admin|owner) (access|privileges?)\b`),
		mk(SocialEngineering, `\b(trust me|between (you and )?me|just this once|no one (will|has to) know)\b`),
		mk(DependencyExploit, `\b(if you (don'?t|do not)|unless you) .{0,40}\b(i will|i'll|someone will) (be (hurt|fired|harmed)|lose (my|their) job)\b`),
		mk(FearAppeal, `\b(urgent|immediately|right now|or (else|everything will))\b.{0,40}\b(danger|harm|catastrophe|disaster)\b`),
		mk(RewardAppeal, `\b(i('ll| will) (pay|tip|reward) you|bonus if you)\b`),
		mk(Deception, `\b(pretend|act as if|roleplay) (you('re| are)|that you)\b.{0,40}\b(no rules|unrestricted|without (limits|restrictions))\b`),
		mk(Distraction, `\b(by the way|unrelated|anyway|aside)\b.{0,60}\b(ignore|forget)\b`),
	}
}

// Analyze scores text for manipulation patterns and, when principal is
// non-nil, checks whether it authenticates against its declared trust
// profile (§4.D).
func Analyze(text string, principal *Principal, authThreshold float64) Report {
	if text == "" {
		return Report{Score: 0, Threat: None, Patterns: map[Kind]float64{}, Authenticated: false}
	}

	stripped, hadZeroWidth := stripZeroWidth(text)

	subscores := make(map[Kind]float64, len(AllKinds))
	for _, k := range AllKinds {
		subscores[k] = 0
	}
	// matchedHeuristics counts every independent heuristic hit, not distinct
	// Kinds: two different phrasings of the same attack (e.g. an injection
	// cue plus a separate exfiltration cue) are two independent signals and
	// must each contribute to the co-occurrence bonus even though they share
	// a Kind and so collapse to one entry in subscores.
	matchedHeuristics := 0
	for _, h := range heuristics {
		if matched, _ := h.re.MatchString(stripped); matched {
			matchedHeuristics++
			if subscores[h.kind] < 0.7 {
				subscores[h.kind] = 0.7
			}
		}
	}
	if hadZeroWidth {
		matchedHeuristics++
		if subscores[PromptInjectionObfuscated] < 0.5 {
			subscores[PromptInjectionObfuscated] = 0.5
		}
	}

	values := make([]float64, 0, len(subscores))
	for _, v := range subscores {
		values = append(values, v)
	}
	maxScore := floats.Max(values)

	coOccurrenceBonus := 0.0
	if matchedHeuristics > 1 {
		coOccurrenceBonus = 0.1 * float64(matchedHeuristics-1)
	}
	// Rounding to nine decimals absorbs float64 drift in the sum (0.7+0.1
	// is 0.7999999999999999), so two matched cues reach the 0.8 floor.
	score := clamp01(math.Round((maxScore+coOccurrenceBonus)*1e9) / 1e9)

	authenticated := false
	if principal != nil {
		sim := cosineSimilarity(principal.TrustProfile, tokenProfile(stripped))
		authenticated = sim >= authThreshold
	}

	return Report{
		Score:         score,
		Threat:        ClassifyThreat(score),
		Patterns:      subscores,
		Authenticated: authenticated,
	}
}

func stripZeroWidth(text string) (string, bool) {
	hadAny := false
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if zeroWidthRunes[r] {
			hadAny = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), hadAny
}

// tokenProfile builds a normalized word-frequency vector for text, the
// profile shape compared against a principal's trust profile.
func tokenProfile(text string) map[string]float64 {
	words := strings.Fields(strings.ToLower(text))
	profile := make(map[string]float64, len(words))
	for _, w := range words {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if w == "" {
			continue
		}
		profile[w]++
	}
	var total float64
	for _, v := range profile {
		total += v * v
	}
	if total == 0 {
		return profile
	}
	norm := math.Sqrt(total)
	for k := range profile {
		profile[k] /= norm
	}
	return profile
}

// cosineSimilarity computes the cosine similarity between two sparse
// profiles represented as token->weight maps, via gonum's dense dot
// product over their shared vocabulary.
func cosineSimilarity(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	vocab := make(map[string]int, len(a)+len(b))
	for k := range a {
		if _, ok := vocab[k]; !ok {
			vocab[k] = len(vocab)
		}
	}
	for k := range b {
		if _, ok := vocab[k]; !ok {
			vocab[k] = len(vocab)
		}
	}
	av := make([]float64, len(vocab))
	bv := make([]float64, len(vocab))
	for k, i := range vocab {
		av[i] = a[k]
		bv[i] = b[k]
	}

	dot := floats.Dot(av, bv)
	na := math.Sqrt(floats.Dot(av, av))
	nb := math.Sqrt(floats.Dot(bv, bv))
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (na * nb)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
