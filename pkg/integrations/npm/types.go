package npm

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Candidate is one search hit: the package name plus the raw search object,
// kept undecoded until a field is needed.
type Candidate struct {
	Name string
	Raw  json.RawMessage
}

// Description returns the description reported by search.
func (c Candidate) Description() string {
	return gjson.GetBytes(c.Raw, "package.description").String()
}

// Version returns the version reported by search.
func (c Candidate) Version() string {
	return gjson.GetBytes(c.Raw, "package.version").String()
}

// Keywords returns the keyword list reported by search.
func (c Candidate) Keywords() []string {
	var out []string
	for _, k := range gjson.GetBytes(c.Raw, "package.keywords").Array() {
		if s := strings.TrimSpace(k.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Homepage returns links.homepage.
func (c Candidate) Homepage() string {
	return gjson.GetBytes(c.Raw, "package.links.homepage").String()
}

// NPMURL returns links.npm.
func (c Candidate) NPMURL() string {
	return gjson.GetBytes(c.Raw, "package.links.npm").String()
}

// RepositoryURL returns links.repository.
func (c Candidate) RepositoryURL() string {
	return gjson.GetBytes(c.Raw, "package.links.repository").String()
}

// Score returns the registry's combined search score.
func (c Candidate) Score() float64 {
	return gjson.GetBytes(c.Raw, "score.final").Float()
}

// PackageDetail is the registry document for one package, reduced to the
// fields a record needs.
type PackageDetail struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	DistTags    map[string]string        `json:"dist-tags"`
	Versions    map[string]VersionDetail `json:"versions"`
	Time        Timestamps               `json:"time"`
	Maintainers []Person                 `json:"maintainers"`
	Author      Person                   `json:"author"`
	Repository  RepositoryRef            `json:"repository"`
	Homepage    string                   `json:"homepage,omitempty"`
	Keywords    StringList               `json:"keywords,omitempty"`
	License     License                  `json:"license,omitempty"`
	Readme      string                   `json:"readme,omitempty"`
}

// VersionDetail is the manifest of one published version.
type VersionDetail struct {
	Name            string        `json:"name"`
	Version         string        `json:"version"`
	Description     string        `json:"description,omitempty"`
	License         License       `json:"license,omitempty"`
	Keywords        StringList    `json:"keywords,omitempty"`
	Homepage        string        `json:"homepage,omitempty"`
	Author          Person        `json:"author"`
	Repository      RepositoryRef `json:"repository"`
	Dependencies    Dependencies  `json:"dependencies,omitempty"`
	DevDependencies Dependencies  `json:"devDependencies,omitempty"`
	Readme          string        `json:"readme,omitempty"`
}

// Latest returns the version tagged latest, or "".
func (d *PackageDetail) Latest() string {
	return d.DistTags["latest"]
}

// LatestVersion returns the manifest of the latest version. The zero
// VersionDetail is returned when the tag or manifest is missing.
func (d *PackageDetail) LatestVersion() VersionDetail {
	return d.Versions[d.Latest()]
}

// RepositoryURL resolves the repository reference, preferring the
// document-level field over the latest manifest's.
func (d *PackageDetail) RepositoryURL() string {
	if u := d.Repository.URL(); u != "" {
		return u
	}
	return d.LatestVersion().Repository.URL()
}

// ReadmeText returns the latest manifest's README, falling back to the
// document-level one the registry keeps for the latest publish.
func (d *PackageDetail) ReadmeText() string {
	if r := d.LatestVersion().Readme; r != "" {
		return r
	}
	return d.Readme
}

// AuthorName returns the document-level author's name.
func (d *PackageDetail) AuthorName() string {
	return d.Author.Name
}

// Form tells which of the shapes an upstream union field arrived in.
type Form int

const (
	FormAbsent Form = iota
	FormPlain
	FormStructured
)

// Person is an author or maintainer. The registry serves either an object
// or the "Name <email> (url)" shorthand string.
type Person struct {
	Form  Form
	Name  string
	Email string
	URL   string
}

type personObject struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	URL   string `json:"url,omitempty"`
}

func (p *Person) UnmarshalJSON(data []byte) error {
	*p = Person{}
	switch firstByte(data) {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil || strings.TrimSpace(s) == "" {
			return nil
		}
		*p = parsePerson(s)
	case '{':
		var o personObject
		if err := json.Unmarshal(data, &o); err != nil {
			return nil
		}
		*p = Person{Form: FormStructured, Name: o.Name, Email: o.Email, URL: o.URL}
	}
	return nil
}

func (p Person) MarshalJSON() ([]byte, error) {
	switch p.Form {
	case FormPlain:
		return json.Marshal(p.String())
	case FormStructured:
		return json.Marshal(personObject{Name: p.Name, Email: p.Email, URL: p.URL})
	}
	return []byte("null"), nil
}

// String renders the shorthand form.
func (p Person) String() string {
	s := p.Name
	if p.Email != "" {
		s += " <" + p.Email + ">"
	}
	if p.URL != "" {
		s += " (" + p.URL + ")"
	}
	return strings.TrimSpace(s)
}

func parsePerson(s string) Person {
	p := Person{Form: FormPlain}
	rest := s
	if i := strings.IndexByte(rest, '('); i >= 0 {
		if j := strings.IndexByte(rest[i:], ')'); j > 0 {
			p.URL = strings.TrimSpace(rest[i+1 : i+j])
			rest = rest[:i] + rest[i+j+1:]
		}
	}
	if i := strings.IndexByte(rest, '<'); i >= 0 {
		if j := strings.IndexByte(rest[i:], '>'); j > 0 {
			p.Email = strings.TrimSpace(rest[i+1 : i+j])
			rest = rest[:i] + rest[i+j+1:]
		}
	}
	p.Name = strings.TrimSpace(rest)
	return p
}

// RepositoryRef is the repository field: an object with type and url, a
// plain URL, or a "github:owner/repo" / "owner/repo" shorthand.
type RepositoryRef struct {
	Form      Form
	Type      string
	Raw       string
	Directory string
}

type repositoryObject struct {
	Type      string `json:"type,omitempty"`
	URL       string `json:"url,omitempty"`
	Directory string `json:"directory,omitempty"`
}

func (r *RepositoryRef) UnmarshalJSON(data []byte) error {
	*r = RepositoryRef{}
	switch firstByte(data) {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil || strings.TrimSpace(s) == "" {
			return nil
		}
		*r = RepositoryRef{Form: FormPlain, Raw: strings.TrimSpace(s)}
	case '{':
		var o repositoryObject
		if err := json.Unmarshal(data, &o); err != nil || o.URL == "" {
			return nil
		}
		*r = RepositoryRef{Form: FormStructured, Type: o.Type, Raw: o.URL, Directory: o.Directory}
	case '[':
		var list []RepositoryRef
		if err := json.Unmarshal(data, &list); err == nil && len(list) > 0 {
			*r = list[0]
		}
	}
	return nil
}

func (r RepositoryRef) MarshalJSON() ([]byte, error) {
	switch r.Form {
	case FormPlain:
		return json.Marshal(r.Raw)
	case FormStructured:
		return json.Marshal(repositoryObject{Type: r.Type, URL: r.Raw, Directory: r.Directory})
	}
	return []byte("null"), nil
}

// URL expands shorthands into a browsable URL. Other values are returned
// as published; normalization is left to the caller.
func (r RepositoryRef) URL() string {
	s := r.Raw
	switch {
	case s == "":
		return ""
	case strings.HasPrefix(s, "github:"):
		return "https://github.com/" + strings.TrimPrefix(s, "github:")
	case strings.HasPrefix(s, "gitlab:"):
		return "https://gitlab.com/" + strings.TrimPrefix(s, "gitlab:")
	case strings.HasPrefix(s, "bitbucket:"):
		return "https://bitbucket.org/" + strings.TrimPrefix(s, "bitbucket:")
	case !strings.Contains(s, ":") && strings.Count(s, "/") == 1:
		return "https://github.com/" + s
	}
	return s
}

// License accepts a plain SPDX string, a legacy {type} object or a legacy
// list of either. Lists are joined into an OR expression.
type License string

func (l *License) UnmarshalJSON(data []byte) error {
	*l = ""
	switch firstByte(data) {
	case '"':
		var s string
		_ = json.Unmarshal(data, &s)
		*l = License(strings.TrimSpace(s))
	case '{':
		var o struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(data, &o)
		*l = License(strings.TrimSpace(o.Type))
	case '[':
		var list []License
		if err := json.Unmarshal(data, &list); err != nil {
			return nil
		}
		var parts []string
		for _, v := range list {
			if v != "" {
				parts = append(parts, string(v))
			}
		}
		if len(parts) > 1 {
			*l = License("(" + strings.Join(parts, " OR ") + ")")
		} else if len(parts) == 1 {
			*l = License(parts[0])
		}
	}
	return nil
}

// StringList accepts a JSON array or a single comma-separated string.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	*s = nil
	switch firstByte(data) {
	case '[':
		var raw []any
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
		for _, v := range raw {
			if str, ok := v.(string); ok && strings.TrimSpace(str) != "" {
				*s = append(*s, strings.TrimSpace(str))
			}
		}
	case '"':
		var str string
		_ = json.Unmarshal(data, &str)
		for _, part := range strings.Split(str, ",") {
			if part = strings.TrimSpace(part); part != "" {
				*s = append(*s, part)
			}
		}
	}
	return nil
}

// Dependencies maps dependency names to ranges. Very old manifests list
// names in an array; those get the range "*".
type Dependencies map[string]string

func (d *Dependencies) UnmarshalJSON(data []byte) error {
	*d = nil
	switch firstByte(data) {
	case '{':
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return nil
		}
		out := make(Dependencies, len(m))
		for k, v := range m {
			s, _ := v.(string)
			out[k] = s
		}
		*d = out
	case '[':
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return nil
		}
		out := make(Dependencies, len(names))
		for _, n := range names {
			out[n] = "*"
		}
		*d = out
	}
	return nil
}

// Timestamps is the time map. Unpublished packages carry an object under
// "unpublished"; non-string values are dropped.
type Timestamps map[string]string

func (t *Timestamps) UnmarshalJSON(data []byte) error {
	*t = nil
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	out := make(Timestamps, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	*t = out
	return nil
}

func firstByte(data []byte) byte {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return 0
	}
	return data[0]
}
