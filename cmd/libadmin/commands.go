package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gorm.io/gorm"

	"library-portal/pkg/common/config"
	apperr "library-portal/pkg/common/errors"
	profiledao "library-portal/pkg/core/profile/repository/dao/impl"
	"library-portal/pkg/core/profile/service"
	"library-portal/pkg/core/schema"
	"library-portal/pkg/core/session"
	"library-portal/pkg/core/validation"
)

// openDB 按当前配置连接数据库并建表
type openDB func() (*config.Config, *gorm.DB, error)

func defaultOpenDB() (*config.Config, *gorm.DB, error) {
	cfg := config.Load()
	db, err := cfg.InitDB()
	if err != nil {
		return nil, nil, err
	}
	if err := schema.AutoMigrate(db); err != nil {
		return nil, nil, fmt.Errorf("migrate schema: %w", err)
	}
	return cfg, db, nil
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(defaultOpenDB)
}

func newRootCmdWith(open openDB) *cobra.Command {
	root := &cobra.Command{
		Use:           "libadmin",
		Short:         "Library portal operator tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(open), newProfileCmd(open))
	return root
}

func newMigrateCmd(open openDB) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, _, err := open(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func newProfileCmd(open openDB) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage accounts",
	}

	var (
		in            service.NewProfile
		role          string
		passwordStdin bool
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a reader, librarian or admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, ok := session.ParseRole(role)
			if !ok {
				return fmt.Errorf("unknown role %q (want reader, librarian or admin)", role)
			}
			in.Role = parsed

			password, err := readPassword(cmd, passwordStdin)
			if err != nil {
				return err
			}
			in.Password = password

			cfg, db, err := open()
			if err != nil {
				return err
			}
			svc := service.NewProfileService(profiledao.NewProfileRepository(db), validation.New(), nil,
				cfg.Middleware.Security.BcryptCost)

			view, err := svc.Create(context.Background(), in)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", view.Role, view.Email, view.ID)
			return nil
		},
	}

	flags := create.Flags()
	flags.StringVar(&in.Name, "name", "", "display name")
	flags.StringVar(&in.Email, "email", "", "login email")
	flags.StringVar(&in.Phone, "phone", "", "phone number (optional)")
	flags.StringVar(&in.Address, "address", "", "address (optional)")
	flags.StringVar(&role, "role", string(session.RoleReader), "reader | librarian | admin")
	flags.BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin instead of prompting")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("email")

	profileCmd.AddCommand(create)
	return profileCmd
}

// readPassword 终端下隐藏输入；--password-stdin 时读取一行
func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal, use --password-stdin")
	}
	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

// describe 将字段错误展开成一行可读信息
func describe(err error) error {
	appErr, ok := apperr.As(err)
	if !ok || len(appErr.Fields) == 0 {
		return err
	}
	parts := make([]string, 0, len(appErr.Fields))
	for _, f := range appErr.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Errorf("%s (%s)", appErr.Message, strings.Join(parts, "; "))
}
