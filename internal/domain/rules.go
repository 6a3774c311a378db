package domain

// Columns holds the header names of the four fields a cleaned export keeps.
type Columns struct {
	Value           string `yaml:"value"`
	Domain          string `yaml:"domain"`
	Title           string `yaml:"title"`
	MetaDescription string `yaml:"metaDescription"`
}

// Required lists the header names in output order.
func (c Columns) Required() []string {
	return []string{c.Value, c.Domain, c.Title, c.MetaDescription}
}

// DefaultColumns are the header names expected when nothing is configured.
var DefaultColumns = Columns{
	Value:           "Value",
	Domain:          "Domain",
	Title:           "Title",
	MetaDescription: "MetaDescription",
}

// LetsExtractColumns are the headers of a Russian-locale LetsExtract export.
var LetsExtractColumns = Columns{
	Value:           "Значение",
	Domain:          "Домен",
	Title:           "Заголовок",
	MetaDescription: "META Description",
}

// RuleSet is the static configuration of a cleaning run.
type RuleSet struct {
	Zones         []string `yaml:"zones"`
	SearchEngines []string `yaml:"searchEngines"`
	Columns       Columns  `yaml:"columns"`
}

// DefaultRuleSet returns the Russian-zone rules with default column names.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Zones: []string{".ru", ".рф", ".su"},
		SearchEngines: []string{
			"search.yahoo",
			"search.brave",
			"google.com",
			"google.ru",
			"yandex.ru/search",
			"bing.com",
			"duckduckgo.com",
		},
		Columns: DefaultColumns,
	}
}
