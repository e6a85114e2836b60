package main

import (
	gobagcontext "github.com/danielkrainas/gobag/context"

	"github.com/danielkrainas/lapse/pkg/cmd"
)

var appVersion string

const defaultVersion = "0.0.0-dev"

func main() {
	if appVersion == "" {
		appVersion = defaultVersion
	}

	ctx := gobagcontext.WithVersion(gobagcontext.Background(), appVersion)
	cmd.Execute(ctx)
}
