package converter

import (
	"path/filepath"
	"strings"

	"github.com/notargets/meshconv/InputParameters"
)

// OutputName derives the download name of a converted mesh. Surface-to-volume
// output for "X<InputSuffix>" is named "X<OutputSuffix>", any other surface
// gets the fallback name. Direct conversion keeps the base name with a .msh
// extension.
func OutputName(inputName string, s Strategy, ip *InputParameters.MeshingParameters) string {
	if ip == nil {
		ip = InputParameters.NewMeshingParameters()
	}
	base := filepath.Base(inputName)
	if s == StrategyDirect {
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		if stem == "" || stem == "." {
			return ip.FallbackOutputName
		}
		return stem + ".msh"
	}
	if ip.InputSuffix != "" && strings.HasSuffix(base, ip.InputSuffix) {
		return strings.TrimSuffix(base, ip.InputSuffix) + ip.OutputSuffix
	}
	return ip.FallbackOutputName
}
