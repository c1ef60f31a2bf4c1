package sheets

import (
	"context"
	"sort"

	sheetsapi "google.golang.org/api/sheets/v4"
)

// validationRowLimit bounds the validated range; the employees sheet never
// grows anywhere near this.
const validationRowLimit = 500

// EnsureDataValidations applies one-of-list validation rules to the
// employees sheet: the role column is restricted to the two known roles and
// the manager column to the names of current managers. Run at startup and
// periodically, since the sheet is edited by hand and the manager list
// drifts.
func (g *Gateway) EnsureDataValidations(ctx context.Context) error {
	sheetID, err := g.api.SheetID(ctx, employeesSheet)
	if err != nil {
		return err
	}

	requests := []*sheetsapi.Request{
		{
			SetDataValidation: &sheetsapi.SetDataValidationRequest{
				Range: &sheetsapi.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    1,
					EndRowIndex:      validationRowLimit,
					StartColumnIndex: 2,
					EndColumnIndex:   3,
				},
				Rule: &sheetsapi.DataValidationRule{
					Condition: &sheetsapi.BooleanCondition{
						Type: "ONE_OF_LIST",
						Values: []*sheetsapi.ConditionValue{
							{UserEnteredValue: "Керівник"},
							{UserEnteredValue: "Співробітник"},
						},
					},
					InputMessage: "Оберіть роль зі списку",
					Strict:       true,
					ShowCustomUi: true,
				},
			},
		},
	}

	employees, err := g.fetchEmployees(ctx)
	if err != nil {
		return err
	}
	managerSet := make(map[string]struct{})
	for _, emp := range employees {
		if emp.IsManager() && emp.Name != "" {
			managerSet[emp.Name] = struct{}{}
		}
	}
	managers := make([]string, 0, len(managerSet))
	for name := range managerSet {
		managers = append(managers, name)
	}
	sort.Strings(managers)

	if len(managers) > 0 {
		values := make([]*sheetsapi.ConditionValue, 0, len(managers))
		for _, name := range managers {
			values = append(values, &sheetsapi.ConditionValue{UserEnteredValue: name})
		}
		requests = append(requests, &sheetsapi.Request{
			SetDataValidation: &sheetsapi.SetDataValidationRequest{
				Range: &sheetsapi.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    1,
					EndRowIndex:      validationRowLimit,
					StartColumnIndex: 5,
					EndColumnIndex:   6,
				},
				Rule: &sheetsapi.DataValidationRule{
					Condition: &sheetsapi.BooleanCondition{
						Type:   "ONE_OF_LIST",
						Values: values,
					},
					InputMessage: "Оберіть керівника зі списку",
					Strict:       true,
					ShowCustomUi: true,
				},
			},
		})
	}

	return g.api.BatchUpdate(ctx, requests)
}
