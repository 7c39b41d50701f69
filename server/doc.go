// Package server provides GameServer, which streams simulations to the
// pixel-art front end.
//
// Browsers connect to /ws/game and receive a SYSTEM_READY event describing
// the title, theme and agents. Sending
//
//	{"type": "START_SIMULATION", "input": "hello"}
//
// runs the server's arcade.Runner for that connection and streams its game
// events back, bracketed by SIMULATION_START and SIMULATION_END.
// STOP_SIMULATION cancels the run. Without a runner the server is in demo
// mode and plays a scripted show.
//
// Besides the socket the server exposes /health, /api/config, /api/graph,
// /api/runs, /api/runs/{id}/events, /debug/vars and /metrics.
package server
