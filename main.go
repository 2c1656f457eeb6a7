//	@title			Verdict API
//	@version		1.0
//	@description	Verdict is a question-answering orchestration service over similarity and knowledge-graph backends
//	@termsOfService	https://github.com/verdicthq/verdict

//	@contact.name	Verdict Support
//	@contact.url	https://github.com/verdicthq/verdict

//	@license.name	MIT
//	@license.url	https://github.com/verdicthq/verdict/blob/main/LICENSE

//	@BasePath	/api/v1

//	@tag.name			questions
//	@tag.description	Question answering operations

//	@tag.name			ingest
//	@tag.description	Document ingestion operations

//	@tag.name			routes
//	@tag.description	Exact-match route operations

//	@tag.name			Operations
//	@tag.description	Operational endpoints for monitoring and health

package main

import (
	"os"

	"github.com/verdicthq/verdict/cli"
)

func main() {
	cmd := cli.RootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
