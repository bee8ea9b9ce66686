/*******************************************************************************
*
* Copyright 2016-2018 Stefan Majewsky <majewsky@gmx.net>
*
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You should have received a copy of the License along with this
* program. If not, you may obtain a copy of the License at
*
*     http://www.apache.org/licenses/LICENSE-2.0
*
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
*
*******************************************************************************/

// Package headerfmt implements the query-language compiler/evaluator that
// renders a header.Header against a user-supplied format string: the
// grammar is a hand-rolled lexer/parser, since nothing in the reference
// pack ships it as an importable library.
package headerfmt

import "github.com/holocm/rpmcore/header"

// byName resolves the subset of tag names %{NAME} format strings actually
// need to query: the common package metadata and file-list tags. Tags
// outside this set are a FormatError, same as an rpm query format string
// referencing a tag this build doesn't know.
var byName = map[string]header.Tag{
	"NAME":            header.TagName,
	"VERSION":         header.TagVersion,
	"RELEASE":         header.TagRelease,
	"EPOCH":           header.TagEpoch,
	"SUMMARY":         header.TagSummary,
	"DESCRIPTION":     header.TagDescription,
	"BUILDTIME":       header.TagBuildTime,
	"BUILDHOST":       header.TagBuildHost,
	"INSTALLTIME":     header.TagInstallTime,
	"SIZE":            header.TagSize,
	"DISTRIBUTION":    header.TagDistribution,
	"VENDOR":          header.TagVendor,
	"LICENSE":         header.TagLicense,
	"PACKAGER":        header.TagPackager,
	"GROUP":           header.TagGroup,
	"URL":             header.TagURL,
	"OS":              header.TagOS,
	"ARCH":            header.TagArch,
	"PREIN":           header.TagPreIn,
	"POSTIN":          header.TagPostIn,
	"PREUN":           header.TagPreUn,
	"POSTUN":          header.TagPostUn,
	"PREINPROG":       header.TagPreInProg,
	"POSTINPROG":      header.TagPostInProg,
	"PREUNPROG":       header.TagPreUnProg,
	"POSTUNPROG":      header.TagPostUnProg,
	"OLDFILENAMES":    header.TagOldFileNames,
	"FILESIZES":       header.TagFileSizes,
	"FILESTATES":      header.TagFileStates,
	"FILEMODES":       header.TagFileModes,
	"FILEMTIMES":      header.TagFileMtimes,
	"FILEMD5S":        header.TagFileMD5s,
	"FILELINKTOS":     header.TagFileLinktos,
	"FILEFLAGS":       header.TagFileFlags,
	"FILEUSERNAME":    header.TagFileUserName,
	"FILEGROUPNAME":   header.TagFileGroupName,
	"SOURCERPM":       header.TagSourceRPM,
	"ARCHIVESIZE":     header.TagArchiveSize,
	"PROVIDENAME":     header.TagProvideName,
	"REQUIREFLAGS":    header.TagRequireFlags,
	"REQUIRENAME":     header.TagRequireName,
	"REQUIREVERSION":  header.TagRequireVersion,
	"CONFLICTFLAGS":   header.TagConflictFlags,
	"CONFLICTNAME":    header.TagConflictName,
	"CONFLICTVERSION": header.TagConflictVersion,
	"RPMVERSION":      header.TagRPMVersion,
	"PROVIDEFLAGS":    header.TagProvideFlags,
	"PROVIDEVERSION":  header.TagProvideVersion,
	"OBSOLETENAME":    header.TagObsoleteName,
	"OBSOLETEFLAGS":   header.TagObsoleteFlags,
	"OBSOLETEVERSION": header.TagObsoleteVersion,
}

var nameByTag map[header.Tag]string

func init() {
	nameByTag = make(map[header.Tag]string, len(byName))
	for name, tag := range byName {
		nameByTag[tag] = name
	}
}

func resolveTagName(name string) (header.Tag, bool) {
	t, ok := byName[name]
	return t, ok
}
