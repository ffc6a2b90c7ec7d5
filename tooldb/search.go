package tooldb

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	andRewrite   = regexp.MustCompile(`(?i)( and )`)
	orRewrite    = regexp.MustCompile(`(?i)( or )`)
	possibleDiam = regexp.MustCompile(`(?i)(^|\s)(?:d\s*=|ø)\s*([0-9]+(?:\.[0-9]+)?)(?:\s*mm)?`)
	logicalTerm  = regexp.MustCompile(`([\(\)\|])`)
)

func isSeparator(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '.' || c == ',' || c == ';' || c == '='
}

// queryRewrite expands a few shop-floor spellings into search expressions.
// "d=6" or "ø6mm" searches for a 6mm diameter.
func queryRewrite(term string) string {
	term = andRewrite.ReplaceAllString(term, " ")
	term = orRewrite.ReplaceAllString(term, " | ")
	return possibleDiam.ReplaceAllString(term, "${1}(diameter=${2} | ${2}mm)")
}

func preprocessTerm(term string) string {
	// For simplistic parsing, add spaces around special characters (|)
	term = logicalTerm.ReplaceAllString(term, " $1 ")

	// Lowercase to be case insensitive. Dashes join words and various
	// spellings (e.g. "v-bit" vs. "vbit") should match.
	return strings.Replace(strings.ToLower(term), "-", "", -1)
}

// StringScore scores how well needle matches haystack; 0 means no match.
func StringScore(needle string, haystack string) float32 {
	pos := strings.Index(haystack, needle)
	if pos < 0 {
		return 0
	}
	endword := pos + len(needle)
	var boost float32 = 0.0
	if pos == 0 || isSeparator(haystack[pos-1]) {
		boost = 12.0 // word starts with it
	}
	if endword == len(haystack) || isSeparator(haystack[endword]) {
		boost += 5.0 // word ends with it
	}
	result := 10 - pos // early in string: higher score
	if result < 1 {
		return 1 + boost
	}
	return float32(result) + boost
}

func maxlist(values ...float32) (max float32) {
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return
}

type searchTool struct {
	label  string
	shape  string
	params string // "name=value" pairs
}

func newSearchTool(t *Tool) *searchTool {
	var params []string
	for _, name := range t.Params.Names() {
		params = append(params, fmt.Sprintf("%s=%v", name, t.Params[name]))
	}
	return &searchTool{
		label:  preprocessTerm(t.Label),
		shape:  preprocessTerm(t.Shape),
		params: preprocessTerm(strings.Join(params, " ")),
	}
}

// Score terms, starting at index 'start', returns index it went up to.
// Treats terms as 'AND' until it reaches an 'OR' (|) operator.
func (s *searchTool) scoreTerms(terms []string, start int) (float32, int) {
	var lastOrTerm float32 = 0.0
	var currentScore float32 = 0.0
	for i := start; i < len(terms); i++ {
		part := terms[i]
		if part == "(" && i < len(terms)-1 {
			subScore, subtermEnd := s.scoreTerms(terms, i+1)
			if subScore <= 0 {
				currentScore = -1000
			} else {
				currentScore += subScore
			}
			i = subtermEnd
			continue
		}
		if part == "|" {
			lastOrTerm = maxlist(lastOrTerm, currentScore)
			currentScore = 0
			continue
		}
		if part == ")" && start != 0 {
			return maxlist(lastOrTerm, currentScore), i
		}
		// Only the best scoring field counts, against keyword stuffing.
		score := maxlist(3.0*StringScore(part, s.label),
			2.0*StringScore(part, s.shape),
			1.0*StringScore(part, s.params))
		if score == 0 {
			// No early out: we still need to parse up to the next OR.
			// Make it impossible for max() to pick this branch.
			currentScore = -1000
		} else {
			currentScore += score
		}
	}
	return maxlist(lastOrTerm, currentScore), len(terms)
}

// MatchScore matches the tool against a preprocessed term.
func (s *searchTool) MatchScore(term string) float32 {
	score, _ := s.scoreTerms(strings.Fields(term), 0)
	return score
}

type scoredTool struct {
	score float32
	tool  *Tool
}
type scoreList []*scoredTool

func (s scoreList) Len() int {
	return len(s)
}
func (s scoreList) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}
func (s scoreList) Less(a, b int) bool {
	diff := s[a].score - s[b].score
	if diff != 0 {
		// Highest match first
		return diff > 0
	}
	if s[a].tool.Label != s[b].tool.Label {
		return s[a].tool.Label < s[b].tool.Label
	}
	return s[a].tool.ID < s[b].tool.ID // stable
}

// Search returns all tools matching the search term, best match first.
// Terms are AND-ed; "|" or "or" separates alternatives, parentheses group.
func (db *ToolDB) Search(term string) []*Tool {
	term = preprocessTerm(queryRewrite(term))
	if strings.TrimSpace(term) == "" {
		return nil
	}
	scored := make(scoreList, 0, 10)
	for t := range db.GetTools() {
		st := newSearchTool(t)
		if score := st.MatchScore(term); score > 0 {
			scored = append(scored, &scoredTool{score: score, tool: t})
		}
	}
	sort.Sort(scored)
	result := make([]*Tool, len(scored))
	for i, s := range scored {
		result[i] = s.tool
	}
	return result
}
