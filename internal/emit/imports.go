package emit

import (
	"sort"
	"strings"

	"github.com/iVampireSP/injectgen/internal/decl"
)

type goImport struct {
	Name string // set only when it differs from the package name
	Path string
}

// importSet tracks the packages a generated file refers to and the name each
// is referred to by.
type importSet struct {
	self   string
	byPath map[string]string // path -> name used in code
	used   map[string]string // name -> path
	names  map[string]string // path -> declared package name
}

func newImportSet(self string) *importSet {
	return &importSet{
		self:   self,
		byPath: make(map[string]string),
		used:   make(map[string]string),
		names:  make(map[string]string),
	}
}

// qualifier returns the prefix for identifiers of pkgPath, importing it on
// first use. The generated package itself needs none.
func (s *importSet) qualifier(pkgPath, pkgName string) string {
	if pkgPath == "" || pkgPath == s.self {
		return ""
	}
	if name, ok := s.byPath[pkgPath]; ok {
		return name
	}
	if pkgName == "" {
		pkgName = decl.PackageNameOf(pkgPath)
	}
	name := pkgName
	if alias := importAlias(pkgPath, pkgName, s.used); alias != "" {
		name = alias
	}
	s.byPath[pkgPath] = name
	s.used[name] = pkgPath
	s.names[pkgPath] = pkgName
	return name
}

// qualified renders pkg.name.
func (s *importSet) qualified(pkgPath, pkgName, name string) string {
	if q := s.qualifier(pkgPath, pkgName); q != "" {
		return q + "." + name
	}
	return name
}

// typeString renders t as Go source, importing what it refers to.
func (s *importSet) typeString(t *decl.Type) string {
	return t.Format(func(t *decl.Type) string {
		return s.qualifier(t.Pkg, t.PackageName())
	})
}

func (s *importSet) imports() []goImport {
	out := make([]goImport, 0, len(s.byPath))
	for path, name := range s.byPath {
		imp := goImport{Path: path}
		if name != s.names[path] {
			imp.Name = name
		}
		out = append(out, imp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// importAlias returns the alias needed for a package, or empty if the package
// name is free.
func importAlias(pkgPath, pkgName string, used map[string]string) string {
	existingPath, ok := used[pkgName]
	if !ok || existingPath == pkgPath {
		return ""
	}
	// Prefix with parent directories until the alias is free
	parts := strings.Split(pkgPath, "/")
	alias := pkgName
	for i := len(parts) - 2; i >= 0; i-- {
		alias = identifierPart(parts[i]) + alias
		if _, taken := used[alias]; !taken {
			return alias
		}
	}
	for n := 2; ; n++ {
		candidate := pkgName + strings.Repeat("_", n-1)
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}

// identifierPart keeps the letters and digits of a path element.
func identifierPart(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}
