package secret

import (
	"fmt"
	"maps"
	"os"
	"regexp"
	"slices"
	"strings"
)

var bracedVar = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvStrict expands $VAR and ${VAR} in s.
//
// A ${VAR} whose variable is unset is an error wrapping ErrMissingEnv; bare
// $VAR expands to "" as with os.ExpandEnv. "$$" yields a literal "$".
func ExpandEnvStrict(s string) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}

	const escaped = "\x00taskstore-dollar\x00"
	s = strings.ReplaceAll(s, "$$", escaped)

	missing := make(map[string]struct{})
	for _, m := range bracedVar.FindAllStringSubmatch(s, -1) {
		if _, ok := os.LookupEnv(m[1]); !ok {
			missing[m[1]] = struct{}{}
		}
	}
	if len(missing) > 0 {
		names := slices.Sorted(maps.Keys(missing))
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(names, ", "))
	}

	return strings.ReplaceAll(os.ExpandEnv(s), escaped, "$"), nil
}
