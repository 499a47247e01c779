package render

import "regexp"

// The fixed-position footer can collide with the tail of the long enumerated
// complaints clause in follow-up letters. When the clause's second item ends
// with this phrase, a page break is spliced in and the list reopened at item
// three. This is a targeted workaround for one known template, not a general
// pagination pass.
var clauseBreakPattern = regexp.MustCompile(`(?i)(affordability assessments conducted prior to lending\.?</li>)`)

const clauseBreakReplacement = `$1</ol><div class="page-break"></div><ol start="3">`

// InsertClausePageBreak splices an explicit page break after the known clause
// landmark. Bodies without the landmark pass through untouched.
func InsertClausePageBreak(body string) string {
	return clauseBreakPattern.ReplaceAllString(body, clauseBreakReplacement)
}
