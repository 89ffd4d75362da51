package integrations_test

import (
	"errors"
	"fmt"

	"github.com/matzehuels/stackscout/pkg/integrations"
)

func ExampleNormalizeRepoURL() {
	// Various repository URL formats are normalized to HTTPS
	fmt.Println(integrations.NormalizeRepoURL("git@github.com:user/repo.git"))
	fmt.Println(integrations.NormalizeRepoURL("git://github.com/user/repo"))
	fmt.Println(integrations.NormalizeRepoURL("git+https://github.com/user/repo.git"))
	fmt.Println(integrations.NormalizeRepoURL("git+ssh://git@github.com/user/repo.git#main"))
	// Output:
	// https://github.com/user/repo
	// https://github.com/user/repo
	// https://github.com/user/repo
	// https://github.com/user/repo
}

func ExampleURLEncode() {
	// URL-encode special characters for API queries
	fmt.Println(integrations.URLEncode("@scope/package"))
	fmt.Println(integrations.URLEncode("web framework"))
	// Output:
	// %40scope%2Fpackage
	// web+framework
}

func ExampleResult() {
	// A failed download-count fetch degrades to zero instead of failing
	res := integrations.Degrade(0, errors.New("timeout"))

	fmt.Println("value:", res.Value)
	fmt.Println("outcome:", res.Outcome)
	fmt.Println("present:", res.Present())
	// Output:
	// value: 0
	// outcome: degraded
	// present: true
}

func Example_errors() {
	// Standard errors for upstream operations
	fmt.Println("ErrNotFound:", integrations.ErrNotFound)
	fmt.Println("ErrNetwork:", integrations.ErrNetwork)
	// Output:
	// ErrNotFound: resource not found
	// ErrNetwork: network error
}
