/*Package ardrone provides an unofficial, standalone link layer for the Parrot AR.Drone 2.0 quadcopter.

Disclaimer

AR.Drone is a registered trademark of Parrot.  The author(s) of this package is/are in no way affiliated with Parrot.
Use this package at your own risk.  The author(s) is/are in no way responsible for any damage caused either to or by the
drone when using this software.

Features

  * AT command dispatch with sequence numbering and automatic COMWDG keepalive
  * Navdata (telemetry) decoding of the header state word and the 'demo' option
  * Configuration read-back from the drone's control port
  * Drone-level convenience commands, eg. TakeOff(), Land(), Move()
  * Prometheus-format link counters

Video is not handled.

Concepts

Workers

A connection is made of three background workers, each owning one socket:
the command worker (UDP 5556), the navdata worker (UDP 5554) and the config
worker (TCP 5559).  A Link starts all three and talks to them only through
channels, so no worker state is ever shared with the caller.

Commands

Commands are queued with Link.Enqueue() and sent one per poll interval (50ms) in the order they were queued.
When nothing is queued for 4 polls a COMWDG keepalive is sent instead, otherwise the drone
decides it has lost its pilot and lands.  Parameters are pre-formatted tokens, see FormatInt(), FormatFloat() and FormatString().

Queries

Navdata and config values are read with QueryTelemetry() and QueryConfig().  Each query is a round trip
to the owning worker, which answers from whatever it has merged so far.  Navdata packets older than the
freshest one already accepted are ignored.

Always call Shutdown() when finished, on every exit path.
*/
package ardrone
