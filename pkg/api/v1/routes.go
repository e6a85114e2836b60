package v1

import "github.com/gorilla/mux"

const (
	RouteNameBase   = "base"
	RouteNamePolls  = "polls"
	RouteNamePoll   = "poll"
	RouteNameSweeps = "sweeps"

	RouteNameClients        = "clients"
	RouteNameClient         = "client"
	RouteNameClientMessages = "client-messages"
)

func RouterWithPrefix(prefix string) *mux.Router {
	rootRouter := mux.NewRouter()
	router := rootRouter
	if prefix != "" {
		router = router.PathPrefix(prefix).Subrouter()
	}

	router.StrictSlash(true)
	for _, descriptor := range routeDescriptors {
		router.Path(descriptor.Path).Name(descriptor.Name)
	}

	return rootRouter
}
