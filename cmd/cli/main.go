// chatsift - Chat Export Parser
//
// chatsift turns chat app text exports into structured messages, statistics
// and a searchable local archive.
package main

import (
	"os"

	"github.com/ccollicutt/chatsift/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
