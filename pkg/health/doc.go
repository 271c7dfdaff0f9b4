/*
Package health provides the reachability and liveness checks fluxdns runs
against directory peers and candidate application endpoints.

A plain TCP connect proves that something is listening; it does not prove that
the application is serving players. fluxdns therefore uses two kinds of check:

	Directory peer  ──► TCPChecker        connect to <peer>:16127
	Candidate       ──► MinecraftChecker  server list ping on <ip>:25565
	                    (or TCPChecker / HTTPChecker when configured)

# Checkers

All checkers implement Checker and return a Result. Failures are values, not
errors: a refused connection, a timeout, or a malformed protocol answer is a
Result with Healthy=false and a Message explaining why.

MinecraftChecker performs the server list ping:

	C→S  handshake      (VarInt len, id 0x00, protocol, host, port, next state 1)
	C→S  status request (VarInt len, id 0x00)
	S→C  status response (VarInt len, id 0x00, VarInt-prefixed JSON)

The JSON document must decode and carry a version object. VarInt framing uses
github.com/multiformats/go-varint.

HTTPChecker sends a request and accepts a configurable status range (200-399
by default). Redirects are not followed.

# Probers

Prober adapts a checker type to "probe this host" so pipelines can fan out over
candidates without knowing the protocol:

	prober, err := health.NewProber(health.ProbeConfig{
		Type:    health.CheckTypeMinecraft,
		Port:    25565,
		Timeout: 5 * time.Second,
	})
	result := prober.Probe(ctx, "10.0.0.2")

ProberFunc lets tests and callers plug in any function.
*/
package health
