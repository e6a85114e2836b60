package v1

import (
	"github.com/danielkrainas/gobag/api/describe"
)

var (
	VersionHeader = describe.Parameter{
		Name:        "Api-Version",
		Type:        "string",
		Description: "The build version of the server.",
		Format:      "<version>",
		Examples:    []string{"0.0.0-dev"},
	}
)

type Route struct {
	Path string
	Name string
}

var routeDescriptors = []Route{
	{"/v1", RouteNameBase},
	{"/v1/polls", RouteNamePolls},
	{"/v1/polls/{id}", RouteNamePoll},
	{"/v1/sweeps", RouteNameSweeps},
	{"/v1/clients", RouteNameClients},
	{"/v1/clients/{id}", RouteNameClient},
	{"/v1/clients/{id}/messages", RouteNameClientMessages},
}
