package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/woozymasta/masterstat/internal/config"
	"github.com/woozymasta/masterstat/internal/geoip"
	"github.com/woozymasta/masterstat/pkg/masterstat"
)

// entry is one line of one-shot output.
type entry struct {
	IP          string `json:"ip"`
	CountryCode string `json:"country_code,omitempty"`
	Port        uint16 `json:"port"`
}

func entries(addrs []masterstat.ServerAddress, geo *geoip.Provider) []entry {
	out := make([]entry, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, entry{IP: a.IP, Port: a.Port, CountryCode: geo.GetCountryCode(a.IP)})
	}

	return out
}

// writeServers prints the server list in the requested format.
func writeServers(w io.Writer, format string, list []entry) error {
	if format == config.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	for _, e := range list {
		addr := masterstat.ServerAddress{IP: e.IP, Port: e.Port}.String()

		var err error
		if e.CountryCode != "" {
			_, err = fmt.Fprintf(w, "%s\t%s\n", addr, e.CountryCode)
		} else {
			_, err = fmt.Fprintln(w, addr)
		}
		if err != nil {
			return err
		}
	}

	return nil
}
