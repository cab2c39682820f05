package scoring

// aliasEntry ties a canonical skill name to the spellings that should resolve to it.
// Entries are kept in a slice because resolution is first-match: when two entries
// claim the same alias (jenkins and ci/cd both own "cicd"), the earlier entry wins.
type aliasEntry struct {
	canonical string
	aliases   []string
}

var skillAliases = []aliasEntry{
	{"javascript", []string{"js", "ecmascript", "node.js", "nodejs", "node js"}},
	{"typescript", []string{"ts"}},
	{"python", []string{"py", "python3", "python2"}},
	{"java", []string{"java8", "java11", "java17", "jdk", "jre"}},
	{"c#", []string{"csharp", "c sharp", ".net", "dotnet"}},
	{"c++", []string{"cpp", "c plus plus"}},
	{"objective-c", []string{"objc", "objective c"}},
	{"go", []string{"golang"}},
	{"ruby", []string{"rb"}},
	{"php", []string{"php7", "php8"}},
	{"swift", []string{"ios", "swiftui"}},
	{"kotlin", []string{"kt"}},
	{"scala", []string{"sc"}},
	{"r", []string{"r-lang", "rstudio"}},

	{"react", []string{"reactjs", "react.js", "react js"}},
	{"vue", []string{"vuejs", "vue.js", "vue js"}},
	{"angular", []string{"angularjs", "angular.js", "angular js"}},
	{"express", []string{"expressjs", "express.js"}},
	{"django", []string{"python django"}},
	{"flask", []string{"python flask"}},
	{"spring", []string{"spring boot", "springboot", "spring framework"}},
	{"laravel", []string{"php laravel"}},
	{"rails", []string{"ruby on rails", "rubyonrails", "ror"}},
	{"asp.net", []string{"aspnet", "asp net"}},
	{"jquery", []string{"jquery.js"}},
	{"bootstrap", []string{"bootstrap css"}},
	{"tailwind", []string{"tailwindcss", "tailwind css"}},

	{"postgresql", []string{"postgres", "psql"}},
	{"mysql", []string{"my sql"}},
	{"mongodb", []string{"mongo", "mongo db"}},
	{"redis", []string{"redis cache"}},
	{"elasticsearch", []string{"elastic search", "es"}},
	{"oracle", []string{"oracle db", "oracledb"}},
	{"sql server", []string{"sqlserver", "mssql", "ms sql"}},
	{"sqlite", []string{"sqlite3"}},
	{"dynamodb", []string{"dynamo db", "dynamo"}},
	{"cassandra", []string{"apache cassandra"}},

	{"aws", []string{"amazon web services", "amazon aws"}},
	{"azure", []string{"microsoft azure", "ms azure"}},
	{"gcp", []string{"google cloud", "google cloud platform"}},
	{"docker", []string{"containerization"}},
	{"kubernetes", []string{"k8s", "k8"}},
	{"jenkins", []string{"ci/cd", "cicd"}},
	{"terraform", []string{"iac", "infrastructure as code"}},
	{"ansible", []string{"configuration management"}},
	{"git", []string{"github", "gitlab", "bitbucket", "version control"}},
	{"ci/cd", []string{"continuous integration", "continuous deployment", "cicd"}},

	{"rest", []string{"rest api", "restful", "restful api"}},
	{"graphql", []string{"graph ql"}},
	{"microservices", []string{"micro services", "service oriented architecture", "soa"}},
	{"machine learning", []string{"ml", "artificial intelligence", "ai"}},
	{"deep learning", []string{"dl", "neural networks"}},
	{"data science", []string{"ds", "data analysis"}},
	{"big data", []string{"bigdata", "hadoop", "spark"}},
	{"blockchain", []string{"bitcoin", "ethereum", "crypto"}},
	{"api", []string{"apis", "web services"}},
	{"json", []string{"javascript object notation"}},
	{"xml", []string{"extensible markup language"}},
	{"html", []string{"html5", "hypertext markup language"}},
	{"css", []string{"css3", "cascading style sheets"}},
	{"sass", []string{"scss"}},
	{"less", []string{"lesscss"}},
	{"webpack", []string{"bundler"}},
	{"babel", []string{"transpiler"}},
	{"npm", []string{"node package manager"}},
	{"yarn", []string{"package manager"}},
	{"agile", []string{"scrum", "kanban"}},
	{"tdd", []string{"test driven development"}},
	{"bdd", []string{"behavior driven development"}},
}

var (
	// aliasIndex maps every canonical name and alias to its canonical form.
	// Built once at init; first entry to claim a spelling keeps it.
	aliasIndex = make(map[string]string)

	// aliasesByCanonical looks up the alias list for a canonical name.
	aliasesByCanonical = make(map[string][]string)
)

func init() {
	for _, entry := range skillAliases {
		if _, ok := aliasIndex[entry.canonical]; !ok {
			aliasIndex[entry.canonical] = entry.canonical
		}
		for _, alias := range entry.aliases {
			if _, ok := aliasIndex[alias]; !ok {
				aliasIndex[alias] = entry.canonical
			}
		}
		aliasesByCanonical[entry.canonical] = entry.aliases
	}
}
