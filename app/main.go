// Файл: main.go

package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "equipment-system",
		Short:         "Учёт спортивного оборудования: каталог, склад, ремонт, перемещения и списание",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCommand(), newMigrateCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
