package config

import (
	"strings"

	"github.com/theirongolddev/riskboard/internal/model"
)

// defaultHeadAliases maps lower-cased shorthand onto the standard heads.
var defaultHeadAliases = map[string]string{
	"subcontractor":          model.ExpSubcontractor,
	"subcontractor cost":     model.ExpSubcontractor,
	"material":               model.ExpMaterial,
	"materials":              model.ExpMaterial,
	"material cost":          model.ExpMaterial,
	"hiring":                 model.ExpHiring,
	"hiring cost":            model.ExpHiring,
	"engineer":               model.ExpEngineerFacilities,
	"engineer facilities":    model.ExpEngineerFacilities,
	"pays":                   model.ExpPaysAllowances,
	"pay":                    model.ExpPaysAllowances,
	"pays & allowances":      model.ExpPaysAllowances,
	"pays and allowances":    model.ExpPaysAllowances,
	"admin":                  model.ExpGeneralAdministration,
	"general administration": model.ExpGeneralAdministration,
	"other":                  model.ExpOther,
	"other costs":            model.ExpOther,
}

// NormalizeHead resolves an expenditure head name. User aliases from the
// config win over the built-in ones; unknown names are returned trimmed
// and unchanged, since entries may carry custom heads.
func NormalizeHead(cfg Config, raw string) string {
	name := strings.TrimSpace(raw)
	key := strings.ToLower(strings.Join(strings.Fields(strings.ReplaceAll(name, "_", " ")), " "))

	for alias, head := range cfg.Expenditure.Aliases {
		if strings.EqualFold(strings.TrimSpace(alias), key) {
			return head
		}
	}
	if head, ok := defaultHeadAliases[key]; ok {
		return head
	}
	return name
}
