package readers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/notargets/meshconv/mesh"
)

// card is one bulk data entry with its continuations merged; element 0 is
// the upper-cased entry name without the large field '*'
type card []string

// field returns data field i (1-based after the name), "" when absent
func (c card) field(i int) string {
	if i < len(c) {
		return c[i]
	}
	return ""
}

// ReadNastran reads GRID and solid/shell element entries from a NASTRAN bulk
// data file in small, large or free field format. Element property IDs become
// the physical tag of each cell.
func ReadNastran(filename string) (*mesh.Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cards, err := scanCards(file)
	if err != nil {
		return nil, err
	}

	msh := mesh.NewMesh()

	// GRIDs first: elements may precede the nodes they reference
	for _, c := range cards {
		if c[0] != "GRID" {
			continue
		}
		id, err := atoi(c.field(1))
		if err != nil {
			return nil, fmt.Errorf("GRID: %w", err)
		}
		coords := make([]float64, 3)
		for k := 0; k < 3; k++ {
			if coords[k], err = parseNastranReal(c.field(3 + k)); err != nil {
				return nil, fmt.Errorf("GRID %d: %w", id, err)
			}
		}
		msh.AddNode(id, coords)
	}

	for _, c := range cards {
		etype, ok := nastranElementType(c)
		if !ok {
			continue
		}
		eid, err := atoi(c.field(1))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c[0], err)
		}
		pid, _ := strconv.Atoi(c.field(2))

		n := etype.GetNumNodes()
		nodeIDs := make([]int, n)
		for k := 0; k < n; k++ {
			if nodeIDs[k], err = atoi(c.field(3 + k)); err != nil {
				return nil, fmt.Errorf("%s %d: %w", c[0], eid, err)
			}
		}
		if etype == mesh.Tet10 {
			// NASTRAN numbers the last two mid-edge nodes 2-4, 3-4; Gmsh uses 3-4, 2-4
			nodeIDs[8], nodeIDs[9] = nodeIDs[9], nodeIDs[8]
		}
		if err := msh.AddCell(etype, nodeIDs, pid, 0); err != nil {
			return nil, fmt.Errorf("%s %d: %w", c[0], eid, err)
		}
	}

	if len(msh.Points) == 0 {
		return nil, fmt.Errorf("no GRID entries found")
	}
	return msh, nil
}

// nastranElementType maps an element entry to a cell type. CTETRA, CHEXA and
// CPENTA come in linear and quadratic variants told apart by the node count.
func nastranElementType(c card) (mesh.ElementType, bool) {
	gridCount := 0
	for _, f := range c[min(3, len(c)):] {
		if f != "" {
			gridCount++
		}
	}
	switch c[0] {
	case "CTRIA3":
		return mesh.Triangle, true
	case "CTRIA6":
		return mesh.Triangle6, true
	case "CQUAD4":
		return mesh.Quad, true
	case "CQUAD8":
		return mesh.Quad8, true
	case "CTETRA":
		if gridCount >= 10 {
			return mesh.Tet10, true
		}
		return mesh.Tet, true
	case "CHEXA":
		if gridCount >= 20 {
			return mesh.Hex20, true
		}
		return mesh.Hex, true
	case "CPENTA":
		if gridCount >= 15 {
			return mesh.Prism15, true
		}
		return mesh.Prism, true
	case "CPYRAM":
		return mesh.Pyramid, true
	}
	return mesh.Unknown, false
}

// scanCards splits a bulk data stream into entries, merging continuation
// lines into their parent entry. Comment lines start with '$'; ENDDATA stops
// the scan.
func scanCards(r io.Reader) ([]card, error) {
	var (
		cards   []card
		current card
	)
	flush := func() {
		if current != nil {
			cards = append(cards, current)
			current = nil
		}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "$") {
			continue
		}
		fields := splitFields(line)
		head := strings.ToUpper(fields[0])

		if head == "ENDDATA" {
			break
		}
		if isContinuation(line, head) {
			if current != nil {
				current = append(current, fields[1:]...)
			}
			continue
		}
		flush()
		current = card{strings.TrimSuffix(head, "*")}
		current = append(current, fields[1:]...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %v", err)
	}
	flush()
	return cards, nil
}

func isContinuation(line, head string) bool {
	switch {
	case strings.HasPrefix(line, "+"), strings.HasPrefix(line, "*"), strings.HasPrefix(line, ","):
		return true
	case head == "" && len(line) > 8:
		// small field continuation with a blank marker
		return true
	}
	return false
}

// splitFields returns the marker/name field followed by the data fields of
// one line. Free field lines are comma separated; large field entries (name
// ending in '*', or '*' continuation lines) use 16 character data fields;
// everything else uses 8 character fields. The trailing continuation marker
// of fixed field lines (columns 73-80) is dropped.
func splitFields(line string) []string {
	if strings.Contains(line, ",") {
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if n := len(parts); n > 1 && strings.HasPrefix(parts[n-1], "+") {
			parts = parts[:n-1]
		}
		return parts
	}

	head := strings.TrimSpace(fixedField(line, 0, 8))
	width, count := 8, 8
	if strings.HasSuffix(head, "*") || strings.HasPrefix(head, "*") {
		width, count = 16, 4
	}
	fields := []string{head}
	for i := 0; i < count; i++ {
		start := 8 + i*width
		fields = append(fields, strings.TrimSpace(fixedField(line, start, start+width)))
	}
	// trim trailing blanks so node counts reflect what was written
	for len(fields) > 1 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	return fields
}

func fixedField(line string, start, end int) string {
	if start >= len(line) {
		return ""
	}
	if end > len(line) {
		end = len(line)
	}
	return line[start:end]
}

// parseNastranReal accepts the NASTRAN shorthand exponents ("1.5-3", "2.+4")
// besides plain Go floats; a blank field reads as zero
func parseNastranReal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	t := strings.ReplaceAll(strings.ToUpper(s), "D", "E")
	for i := len(t) - 1; i > 0; i-- {
		if (t[i] == '+' || t[i] == '-') && t[i-1] != 'E' {
			t = t[:i] + "E" + t[i:]
			break
		}
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid real %q", s)
	}
	return v, nil
}
