// Package redis stores simulation runs in Redis.
//
// Keys (with the default prefix):
//
//	pixelgraph:run:<run_id>:events   list of JSON events
//	pixelgraph:runs                  sorted set of run ids, scored by latest event time
package redis
