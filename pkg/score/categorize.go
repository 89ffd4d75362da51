package score

import "strings"

// Category labels in rule order.
const (
	CategoryWebFramework   = "Web Framework"
	CategoryAPIFramework   = "API Framework"
	CategoryRealtime       = "Real-time"
	CategoryFullStack      = "Full-stack"
	CategoryMicroservices  = "Microservices"
	CategoryTesting        = "Testing"
	CategoryBuildTool      = "Build Tool"
	CategoryDatabase       = "Database/ORM"
	CategoryAuthentication = "Authentication"
	CategoryLogging        = "Logging"
	CategoryUtility        = "Utility"
	CategoryCLI            = "CLI"
	CategoryOther          = "Other"
)

type rule struct {
	label string
	terms []string
}

var rules = []rule{
	{CategoryWebFramework, []string{"web framework", "http server", "web server", "express", "web application"}},
	{CategoryAPIFramework, []string{"api", "rest", "restful", "graphql", "api framework"}},
	{CategoryRealtime, []string{"realtime", "websocket", "socket", "real-time", "ws"}},
	{CategoryFullStack, []string{"fullstack", "full-stack", "isomorphic", "universal", "ssr", "server-side rendering"}},
	{CategoryMicroservices, []string{"microservice", "micro-service", "microservices", "distributed"}},
	{CategoryTesting, []string{"test", "testing", "mocha", "jest", "chai", "jasmine", "unit test"}},
	{CategoryBuildTool, []string{"build", "bundler", "webpack", "compiler", "rollup", "vite", "build tool"}},
	{CategoryDatabase, []string{"orm", "database", "mongodb", "mysql", "postgres", "sequelize", "typeorm"}},
	{CategoryAuthentication, []string{"auth", "authentication", "passport", "jwt", "oauth"}},
	{CategoryLogging, []string{"log", "logging", "winston", "morgan", "logger"}},
	{CategoryUtility, []string{"utility", "helper", "utils", "tool"}},
	{CategoryCLI, []string{"cli", "command line", "terminal", "commander"}},
}

// Categories lists every label Categorize can return, in order.
func Categories() []string {
	out := make([]string, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, r.label)
	}
	return append(out, CategoryOther)
}

// Categorize tags a package by case-insensitive substring matches against
// its description, keywords and name. Matching is plain substring search,
// so "ws" also hits "news". Labels come back in rule order; a package
// matching nothing is ["Other"].
func Categorize(name, description string, keywords []string) []string {
	text := strings.ToLower(description + " " + strings.Join(keywords, " ") + " " + name)

	var out []string
	for _, r := range rules {
		for _, term := range r.terms {
			if strings.Contains(text, term) {
				out = append(out, r.label)
				break
			}
		}
	}
	if len(out) == 0 {
		return []string{CategoryOther}
	}
	return out
}
