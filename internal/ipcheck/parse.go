package ipcheck

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net"
	"strings"
)

func parseCIDRLines(r io.Reader) ([]*net.IPNet, error) {
	var nets []*net.IPNet
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, n, err := net.ParseCIDR(line); err == nil {
			nets = append(nets, n)
		}
	}
	return nets, scanner.Err()
}

func parseCIDRs(cidrs []string) []*net.IPNet {
	nets, _ := parseCIDRLines(strings.NewReader(strings.Join(cidrs, "\n")))
	return nets
}

// parseIPLines reads one IP per line; with firstField set, only the first
// whitespace-separated field of each line is considered.
func parseIPLines(r io.Reader, firstField bool) ([]string, error) {
	var ips []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if firstField {
			line = strings.Fields(line)[0]
		}
		if ip := net.ParseIP(line); ip != nil {
			ips = append(ips, ip.String())
		}
	}
	return ips, scanner.Err()
}

func parseOCI(r io.Reader) ([]*net.IPNet, error) {
	var data struct {
		Regions []struct {
			CIDRs []struct {
				CIDR string `json:"cidr"`
			} `json:"cidrs"`
		} `json:"regions"`
	}
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, err
	}
	var cidrs []string
	for _, region := range data.Regions {
		for _, c := range region.CIDRs {
			cidrs = append(cidrs, c.CIDR)
		}
	}
	return parseCIDRs(cidrs), nil
}

func parseGeofeed(r io.Reader) ([]*net.IPNet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.Comment = '#'
	var cidrs []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) > 0 {
			cidrs = append(cidrs, strings.TrimSpace(record[0]))
		}
	}
	return parseCIDRs(cidrs), nil
}
