package llm

import (
	"context"
	"strings"
	"unicode"
)

// stopwords are ignored when matching question terms against the passage.
var stopwords = map[string]struct{}{
	"a": {}, "about": {}, "an": {}, "and": {}, "are": {}, "be": {}, "can": {}, "do": {},
	"does": {}, "for": {}, "how": {}, "i": {}, "in": {}, "is": {}, "it": {}, "me": {},
	"much": {}, "my": {}, "of": {}, "on": {}, "or": {}, "should": {}, "the": {}, "to": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "who": {}, "why": {}, "with": {},
	"you": {}, "your": {}, "etc": {},
}

// LexicalReader is the offline extractive reader: it splits the passage into
// clauses and returns the clause sharing the most terms with the question.
type LexicalReader struct{}

// Name identifies the reader in logs.
func (LexicalReader) Name() string { return "lexical" }

// Read returns the best-matching clause, or an empty Answer when no clause
// shares a term with the question.
func (LexicalReader) Read(ctx context.Context, question, passage string) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}
	want := termSet(question)
	if len(want) == 0 {
		return Answer{}, nil
	}

	best, bestHits := "", 0
	for _, clause := range splitClauses(passage) {
		have := termSet(clause)
		hits := 0
		for t := range want {
			if _, ok := have[t]; ok {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = clause, hits
		}
	}
	if bestHits == 0 {
		return Answer{}, nil
	}
	return Answer{Text: best, Score: float64(bestHits) / float64(len(want))}, nil
}

// splitClauses breaks a passage on sentence and clause punctuation.
func splitClauses(passage string) []string {
	parts := strings.FieldsFunc(passage, func(r rune) bool {
		switch r {
		case '.', ';', '?', '!', '\n':
			return true
		}
		return false
	})
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// termSet lowercases, tokenizes, drops stopwords and folds simple plurals.
func termSet(s string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stopwords[w]; skip {
			continue
		}
		set[stem(w)] = struct{}{}
	}
	return set
}

func stem(w string) string {
	if len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
		return w[:len(w)-1]
	}
	return w
}
