// Package lang implements an embeddable query language engine: a lexer and
// precedence parser derived at run time from an operator table, an
// expression tree, lexically scoped contexts holding data and layered
// function registrations, and an overload resolver with lazily evaluated
// arguments and resource quotas.
//
// # Pipeline
//
//	source ─▶ Lexer ─▶ tokens ─▶ Grammar ─▶ Expression ─▶ Statement.Evaluate
//	             ▲                  ▲                          │
//	             └── OperatorTable ─┘                 Context ◀┘ call runner
//
// An [OperatorTable] is built once from an ordered list of [OperatorDecl]
// records. Each precedence group binds more loosely than the one before it.
// The [Lexer] and [Grammar] derived from the table are plain data consumed
// by a generic precedence parser, so new operators need no generated code.
//
// # Grammar
//
// Informal EBNF, with operator productions taken from the table:
//
//	value  → literal | keyword | '$' name | '(' value ')'
//	       | name '(' args ')' | '[' args ']' | '{' args '}'
//	       | prefix-op value | value binary-op value | value suffix-op
//	       | value '[' args ']' | value '(' args ')'   (delegates only)
//	args   → slot (',' slot)* (',' named)* | named (',' named)*
//	slot   → value | ε
//	named  → value MAPPING value
//
// Operators become function calls: "a + b" calls "#operator_+" and "-a"
// calls "#unary_operator_-" unless the declaration names an alias.
//
// # Evaluation
//
// Every [Function] node is resolved by name against the [Context] chain.
// Definitions registered closer to the evaluation scope always win over
// ancestor definitions of the same name; type specialization only breaks
// ties within one scope. Parameters typed with [Lazy] or [LambdaType]
// receive the unevaluated argument, which is how "and" and "or" short
// circuit.
//
// # Example
//
//	engine, _ := lang.NewFactory().Create()
//	stmt, _ := engine.Parse(ctx, "$.where($ > 1).len()")
//	c := std.NewContext()
//	v, err := stmt.Evaluate(ctx, []any{1, 2, 3}, c)
package lang
