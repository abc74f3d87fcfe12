package probe

import "regexp"

// ErrorPatterns match driver messages that show the identifier reached the
// parser or the placeholder binder.
var ErrorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)HY093|Invalid parameter number`),
	regexp.MustCompile(`(?i)wrong number of bind variables`),
	regexp.MustCompile(`(?i)number of bound variables`),
	regexp.MustCompile(`(?i)syntax error|ER_PARSE_ERROR|You have an error in your SQL syntax`),
	regexp.MustCompile(`(?i)unknown column|no such column`),
	regexp.MustCompile(`(?i)column "[^"]*" does not exist`),
	regexp.MustCompile(`(?i)unrecognized token`),
}

// HasIndicator reports whether a response to a non-benign payload looks
// like the payload influenced the statement.
func HasIndicator(code int, body string, benign bool) bool {
	if benign {
		return false
	}
	if code >= 400 {
		return true
	}
	for _, rx := range ErrorPatterns {
		if rx.MatchString(body) {
			return true
		}
	}
	return false
}
