package masterstat

import (
	"cmp"
	"encoding/binary"
	"net/netip"
	"slices"
	"strconv"
)

// rawAddressSize is the wire size of one server record: 4 IPv4 octets and a big-endian port.
const rawAddressSize = 6

// ServerAddress is one game server endpoint announced by a master server.
type ServerAddress struct {
	IP   string `json:"ip"`
	Port uint16 `json:"port"`
}

// String returns the address in "ip:port" form.
func (a ServerAddress) String() string {
	return a.IP + ":" + strconv.Itoa(int(a.Port))
}

// Compare orders addresses by IP string, then by port.
func (a ServerAddress) Compare(b ServerAddress) int {
	if c := cmp.Compare(a.IP, b.IP); c != 0 {
		return c
	}

	return cmp.Compare(a.Port, b.Port)
}

// Less reports whether a sorts before b.
func (a ServerAddress) Less(b ServerAddress) bool {
	return a.Compare(b) < 0
}

// rawServerAddress is the packed wire form of a ServerAddress.
type rawServerAddress [rawAddressSize]byte

func (r rawServerAddress) decode() ServerAddress {
	ip := make([]byte, 0, len("255.255.255.255"))
	for i := 0; i < 4; i++ {
		if i > 0 {
			ip = append(ip, '.')
		}
		ip = strconv.AppendUint(ip, uint64(r[i]), 10)
	}

	return ServerAddress{
		IP:   string(ip),
		Port: binary.BigEndian.Uint16(r[4:6]),
	}
}

func encodeRecord(a ServerAddress) (rawServerAddress, bool) {
	var raw rawServerAddress

	ip, err := netip.ParseAddr(a.IP)
	if err != nil || !ip.Is4() {
		return raw, false
	}

	ip4 := ip.As4()
	copy(raw[:4], ip4[:])
	binary.BigEndian.PutUint16(raw[4:], a.Port)

	return raw, true
}

// SortAndDeduplicate returns a sorted copy of addrs with duplicates removed.
// The input slice is left untouched.
func SortAndDeduplicate(addrs []ServerAddress) []ServerAddress {
	out := slices.Clone(addrs)
	slices.SortFunc(out, ServerAddress.Compare)

	return slices.Compact(out)
}
