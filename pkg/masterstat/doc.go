// Package masterstat gets game server addresses from QuakeWorld master servers.
//
// A master is asked for its list with a three byte UDP datagram and answers with
// a header followed by packed 6 byte records (IPv4 address and big-endian port).
//
//	masters := []string{"master.quakeworld.nu:27000", "master.quakeservers.net:27000"}
//	servers := masterstat.ServerAddressesFromMany(masters, 2*time.Second)
//	for _, s := range servers {
//		fmt.Println(s)
//	}
package masterstat
