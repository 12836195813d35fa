package std

import (
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/ardnew/mung"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ardnew/yaql/lang"
)

var patterns sync.Map // string -> *regexp.Regexp

// compile returns the cached compiled form of pattern.
func compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := patterns.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, lang.ErrArgumentValue.Wrap(err).Describe("invalid pattern %q", pattern)
	}

	actual, _ := patterns.LoadOrStore(pattern, re)

	return actual.(*regexp.Regexp), nil
}

func match(negate bool) lang.Payload {
	return func(args []any, _ map[string]any) (any, error) {
		re, err := compile(args[1].(string))
		if err != nil {
			return nil, err
		}

		return re.MatchString(args[0].(string)) != negate, nil
	}
}

// caser applies a case mapping built per call; a [cases.Caser] is stateful.
func caser(mapping func(language.Tag, ...cases.Option) cases.Caser) lang.Payload {
	return func(args []any, _ map[string]any) (any, error) {
		return mapping(language.Und).String(args[0].(string)), nil
	}
}

// trimmer applies trim with the cutset chars, or trimSpace when chars is
// null.
func trimmer(trim func(s, cutset string) string, trimSpace func(string) string) lang.Payload {
	return func(args []any, _ map[string]any) (any, error) {
		s := args[0].(string)
		if args[1] == nil {
			return trimSpace(s), nil
		}

		return trim(s, args[1].(string)), nil
	}
}

func stringMethod(name, doc string) *lang.Builder {
	return lang.Define(name).
		Doc(doc).
		Param("string", lang.String()).
		Method()
}

// pathItems splits a list-valued path variable, dropping empty elements.
func pathItems(items []any) []string {
	out := make([]string, 0, len(items))

	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}

	return out
}

func stringFunctions() []*lang.FunctionDefinition {
	return []*lang.FunctionDefinition{
		lang.Define("#operator_=~").
			Doc("Reports whether left matches the regular expression right.").
			Param("left", lang.String()).
			Param("right", lang.String()).
			MustBuild(match(false)),

		lang.Define("#operator_!~").
			Doc("Reports whether left does not match the regular expression right.").
			Param("left", lang.String()).
			Param("right", lang.String()).
			MustBuild(match(true)),

		lang.Define("len").
			Doc("Returns the number of characters in a string.").
			Param("string", lang.String()).
			ExtensionMethod().
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				n, _ := lang.Len(args[0])

				return int64(n), nil
			}),

		stringMethod("toUpper", "Returns the string in upper case.").
			MustBuild(caser(cases.Upper)),

		stringMethod("toLower", "Returns the string in lower case.").
			MustBuild(caser(cases.Lower)),

		stringMethod("toTitle", "Returns the string with each word capitalized.").
			MustBuild(caser(cases.Title)),

		stringMethod("trim", "Strips chars, or white space, from both ends.").
			Param("chars", lang.String().OrNull(), lang.Default(nil)).
			MustBuild(trimmer(strings.Trim, strings.TrimSpace)),

		stringMethod("trimLeft", "Strips chars, or white space, from the start.").
			Param("chars", lang.String().OrNull(), lang.Default(nil)).
			MustBuild(trimmer(strings.TrimLeft, func(s string) string {
				return strings.TrimLeft(s, " \t\r\n\v\f")
			})),

		stringMethod("trimRight", "Strips chars, or white space, from the end.").
			Param("chars", lang.String().OrNull(), lang.Default(nil)).
			MustBuild(trimmer(strings.TrimRight, func(s string) string {
				return strings.TrimRight(s, " \t\r\n\v\f")
			})),

		stringMethod("split", "Splits the string around separator, or runs of "+
			"white space. A non-negative maxSplits bounds the number of splits.").
			Param("separator", lang.String().OrNull(), lang.Default(nil)).
			Param("maxSplits", lang.Integer(), lang.Default(int64(-1))).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				s, limit := args[0].(string), int(args[2].(int64))

				var parts []string

				switch {
				case args[1] == nil && limit < 0:
					parts = strings.Fields(s)
				case args[1] == nil:
					parts = splitFields(s, limit)
				case limit < 0:
					parts = strings.Split(s, args[1].(string))
				default:
					parts = strings.SplitN(s, args[1].(string), limit+1)
				}

				out := make([]any, len(parts))
				for i, p := range parts {
					out[i] = p
				}

				return out, nil
			}),

		stringMethod("replace", "Replaces occurrences of old with new. A "+
			"non-negative count bounds the number of replacements.").
			Param("old", lang.String()).
			Param("new", lang.String()).
			Param("count", lang.Integer(), lang.Default(int64(-1))).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return strings.Replace(
					args[0].(string), args[1].(string), args[2].(string),
					int(args[3].(int64)),
				), nil
			}),

		stringMethod("startsWith", "Reports whether the string starts with any prefix.").
			Varargs(lang.String()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				for _, p := range args[1:] {
					if strings.HasPrefix(args[0].(string), p.(string)) {
						return true, nil
					}
				}

				return false, nil
			}),

		stringMethod("endsWith", "Reports whether the string ends with any suffix.").
			Varargs(lang.String()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				for _, p := range args[1:] {
					if strings.HasSuffix(args[0].(string), p.(string)) {
						return true, nil
					}
				}

				return false, nil
			}),

		stringMethod("indexOf", "Returns the character index of the first "+
			"occurrence of sub, or -1.").
			Param("sub", lang.String()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				s, sub := args[0].(string), args[1].(string)

				i := strings.Index(s, sub)
				if i < 0 {
					return int64(-1), nil
				}

				return int64(len([]rune(s[:i]))), nil
			}),

		stringMethod("substring", "Returns length characters starting at "+
			"start; negative start counts from the end, negative length "+
			"takes the remainder.").
			Param("start", lang.Integer()).
			Param("length", lang.Integer(), lang.Default(int64(-1))).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				runes := []rune(args[0].(string))
				start, length := args[1].(int64), args[2].(int64)

				if start < 0 {
					start = max(start+int64(len(runes)), 0)
				}

				start = min(start, int64(len(runes)))

				end := int64(len(runes))
				if length >= 0 {
					end = min(start+length, end)
				}

				return string(runes[start:end]), nil
			}),

		stringMethod("characters", "Returns the characters of the string as a list.").
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				var out []any
				for _, r := range args[0].(string) {
					out = append(out, string(r))
				}

				return out, nil
			}),

		lang.Define("join").
			Doc("Joins the string forms of the collection's elements with separator.").
			Param("collection", lang.Iterable()).
			Param("separator", lang.String()).
			Method().
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return join(args[0], args[1].(string))
			}),

		stringMethod("join", "Joins the string forms of the collection's "+
			"elements with this string as separator.").
			Param("collection", lang.Iterable()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return join(args[1], args[0].(string))
			}),

		lang.Define("concat").
			Doc("Concatenates strings.").
			Varargs(lang.String()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				var sb strings.Builder
				for _, arg := range args {
					sb.WriteString(arg.(string))
				}

				return sb.String(), nil
			}),

		lang.Define("str").
			Doc("Returns the string form of value.").
			Param("value", lang.Any()).
			ExtensionMethod().
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return str(args[0]), nil
			}),

		lang.Define("isString").
			Doc("Reports whether arg is a string.").
			Param("arg", lang.Any()).
			ExtensionMethod().
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				_, ok := args[0].(string)

				return ok, nil
			}),

		stringMethod("pathPrefix", "Prepends items to the path list in the "+
			"string, removing duplicates.").
			Varargs(lang.String()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				return mung.Make(
					mung.WithSubjectItems(args[0].(string)),
					mung.WithDelim(string(os.PathListSeparator)),
					mung.WithPrefixItems(pathItems(args[1:])...),
				).String(), nil
			}),

		stringMethod("pathPrefixIf", "Like pathPrefix, keeping only the "+
			"elements for which predicate holds.").
			Param("predicate", lang.LambdaType()).
			Varargs(lang.String()).
			MustBuild(func(args []any, _ map[string]any) (any, error) {
				pred := asLambda(args[1])

				var failed error

				out := mung.Make(
					mung.WithSubjectItems(args[0].(string)),
					mung.WithDelim(string(os.PathListSeparator)),
					mung.WithPrefixItems(pathItems(args[2:])...),
					mung.WithFilter(func(item string) bool {
						if failed != nil {
							return false
						}

						v, err := call(pred, item)
						if err != nil {
							failed = err

							return false
						}

						return lang.Truthy(v)
					}),
				).String()

				if failed != nil {
					return nil, failed
				}

				return out, nil
			}),
	}
}

// splitFields splits s around runs of white space into at most limit+1
// fields; the last field holds the unsplit remainder.
func splitFields(s string, limit int) []string {
	var out []string

	s = strings.TrimLeft(s, " \t\r\n\v\f")

	for len(out) < limit && s != "" {
		i := strings.IndexAny(s, " \t\r\n\v\f")
		if i < 0 {
			break
		}

		out = append(out, s[:i])
		s = strings.TrimLeft(s[i:], " \t\r\n\v\f")
	}

	if s != "" {
		out = append(out, s)
	}

	return out
}

func join(collection any, sep string) (any, error) {
	items, err := lang.Collect(collection)
	if err != nil {
		return nil, err
	}

	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = str(item)
	}

	return strings.Join(parts, sep), nil
}

// str renders v as text: strings verbatim, everything else in expression
// notation.
func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return lang.Format(v)
}
