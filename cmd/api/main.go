// Command api serves the orders collection over HTTP and gRPC without the CLI wrapper.
package main

import (
	_ "time/tzdata"

	"go.uber.org/fx"

	"github.com/Additional-Code/repairdesk/internal/app"
)

func main() {
	fx.New(app.HTTP, app.EventLogger).Run()
}
