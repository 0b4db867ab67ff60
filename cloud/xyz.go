package cloud

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/pointstruct/tensor"
)

// ReadXYZ parses a plain-text point cloud: one point per line, columns
// separated by whitespace or commas. The first three columns are x, y, z;
// any further columns become per-point features. Blank lines and lines
// starting with '#' are skipped. Every data line must have the same column
// count.
func ReadXYZ(r io.Reader) (*Cloud, error) {
	var (
		coords []float64
		feats  []float64
		width  = -1
		lineNo int
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		if width == -1 {
			if len(fields) < 3 {
				return nil, fmt.Errorf("line %d: need at least 3 columns, got %d", lineNo, len(fields))
			}
			width = len(fields)
		} else if len(fields) != width {
			return nil, fmt.Errorf("line %d: %d columns, want %d", lineNo, len(fields), width)
		}
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", lineNo, i+1, err)
			}
			if i < 3 {
				coords = append(coords, v)
			} else {
				feats = append(feats, v)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading cloud: %w", err)
	}
	if len(coords) == 0 {
		return nil, fmt.Errorf("no points found")
	}

	m := len(coords) / 3
	c := &Cloud{Points: tensor.FromSlice(coords, m, 3)}
	if d := width - 3; d > 0 {
		c.Features = tensor.FromSlice(feats, m, d)
	}
	return c, nil
}

// WriteXYZ writes the cloud in the format ReadXYZ parses, space separated.
func WriteXYZ(w io.Writer, c *Cloud) error {
	bw := bufio.NewWriter(w)
	m := c.Len()
	d := c.FeatureDim()
	for p := 0; p < m; p++ {
		fmt.Fprintf(bw, "%g %g %g", c.Points.At(p, 0), c.Points.At(p, 1), c.Points.At(p, 2))
		for j := 0; j < d; j++ {
			fmt.Fprintf(bw, " %g", c.Features.At(p, j))
		}
		if _, err := bw.WriteString("\n"); err != nil {
			return fmt.Errorf("writing cloud: %w", err)
		}
	}
	return bw.Flush()
}

// ReadXYZFile reads a cloud from the named file.
func ReadXYZFile(path string) (*Cloud, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening cloud file: %w", err)
	}
	defer f.Close()
	c, err := ReadXYZ(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// WriteXYZFile writes a cloud to the named file, creating or truncating it.
func WriteXYZFile(path string, c *Cloud) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating cloud file: %w", err)
	}
	if err := WriteXYZ(f, c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
