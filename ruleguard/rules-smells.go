package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// Two guards in a row with the same return can be merged:
	//   if a { return err }
	//   if b { return err }
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	m.Match(`for $*_ { for $*_ { $*_ } }`).
		Report(`nested for-loop; consider extracting inner loop logic or reducing algorithmic complexity`)
}

// logging: components take a *zap.Logger from their constructor.
func logging(m dsl.Matcher) {
	m.Import("go.uber.org/zap")

	m.Match(`zap.L()`, `zap.S()`).
		Report(`global zap logger; inject a *zap.Logger through the constructor`)

	m.Match(`log.Printf($*_)`, `log.Println($*_)`, `fmt.Printf($*_)`, `fmt.Println($*_)`).
		Where(!m.File().PkgPath.Matches(`/cmd/`)).
		Report(`unstructured output outside cmd/; log through zap`)
}

// errs: wrap with %w so callers can match sentinels with errors.Is.
func errs(m dsl.Matcher) {
	m.Match(`errors.New(fmt.Sprintf($*args))`).
		Report(`use fmt.Errorf($args)`).
		Suggest(`fmt.Errorf($args)`)

	m.Match(`fmt.Errorf($f, $*_, $err)`).
		Where(m["err"].Type.Is(`error`) && !m["f"].Text.Matches(`%w`)).
		Report(`error formatted without %w; wrap it so errors.Is keeps working`)
}

// sqlctx: every database call carries the request context.
func sqlctx(m dsl.Matcher) {
	m.Match(`$db.Query($*_)`, `$db.QueryRow($*_)`, `$db.Exec($*_)`).
		Where(m["db"].Type.Is(`*sql.DB`) || m["db"].Type.Is(`*sql.Tx`)).
		Report(`use the Context variant of $db calls`)
}
