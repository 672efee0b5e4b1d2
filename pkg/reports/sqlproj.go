package reports

import (
	"fmt"
	"strings"
	"text/template"
)

// sqlprojTemplate is an SSDT project scaffold referencing the generated DDL,
// ready to open in Visual Studio or deploy with SqlPackage.
var sqlprojTemplate = template.Must(template.New("sqlproj").Parse(`<?xml version="1.0" encoding="utf-8"?>
<Project DefaultTargets="Build" xmlns="http://schemas.microsoft.com/developer/msbuild/2003">
  <PropertyGroup>
    <Name>{{.Name}}</Name>
    <ProjectGuid>{{"{"}}{{.ProjectGuid}}{{"}"}}</ProjectGuid>
    <DSP>{{.DSP}}</DSP>
    <OutputType>Database</OutputType>
    <RootNamespace>{{.Name}}</RootNamespace>
    <ModelCollation>1033, CI</ModelCollation>
  </PropertyGroup>
  <ItemGroup>
{{- range .Scripts}}
    <Build Include="{{.}}" />
{{- end}}
  </ItemGroup>
</Project>
`))

// sqlprojData is the template input for the project scaffold.
type sqlprojData struct {
	Name        string
	ProjectGuid string
	DSP         string
	Scripts     []string
}

// platformDSP maps a recommended platform to the SSDT database schema provider.
var platformDSP = map[string]string{
	"azure_sql_database":         "Microsoft.Data.Tools.Schema.Sql.SqlAzureV12DatabaseSchemaProvider",
	"azure_sql_managed_instance": "Microsoft.Data.Tools.Schema.Sql.SqlAzureV12DatabaseSchemaProvider",
	"sql_server_vm":              "Microsoft.Data.Tools.Schema.Sql.Sql160DatabaseSchemaProvider",
}

// GenerateSqlProj renders the .sqlproj scaffold for a project name, target
// platform and DDL script file list.
func GenerateSqlProj(name, platform, projectGuid string, scripts []string) (string, error) {
	dsp, ok := platformDSP[platform]
	if !ok {
		dsp = platformDSP["sql_server_vm"]
	}

	var sb strings.Builder
	err := sqlprojTemplate.Execute(&sb, sqlprojData{
		Name:        name,
		ProjectGuid: strings.ToUpper(projectGuid),
		DSP:         dsp,
		Scripts:     scripts,
	})
	if err != nil {
		return "", fmt.Errorf("render sqlproj: %w", err)
	}
	return sb.String(), nil
}
