/*******************************************************************************
*
* Copyright 2015 Stefan Majewsky <majewsky@gmx.net>
*
* This file is part of Holo.
*
* Holo is free software: you can redistribute it and/or modify it under the
* terms of the GNU General Public License as published by the Free Software
* Foundation, either version 3 of the License, or (at your option) any later
* version.
*
* Holo is distributed in the hope that it will be useful, but WITHOUT ANY
* WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR
* A PARTICULAR PURPOSE. See the GNU General Public License for more details.
*
* You should have received a copy of the GNU General Public License along with
* Holo. If not, see <http://www.gnu.org/licenses/>.
*
*******************************************************************************/

package header

// Reserved tag range used for region markers (HeaderImmutable in the
// metadata header, HeaderSignatures in the signature header). A region
// marker's own tag always falls in this range.
const (
	TagHeaderSignatures Tag = 62
	TagHeaderImmutable  Tag = 63
	TagHeaderI18NTable  Tag = 100
)

// Package metadata tags, see [LSB, 25.2.4.1-25.2.4.4].
const (
	TagName         Tag = 1000
	TagVersion      Tag = 1001
	TagRelease      Tag = 1002
	TagEpoch        Tag = 1003
	TagSummary      Tag = 1004
	TagDescription  Tag = 1005
	TagBuildTime    Tag = 1006
	TagBuildHost    Tag = 1007
	TagInstallTime  Tag = 1008
	TagSize         Tag = 1009
	TagDistribution Tag = 1010
	TagVendor       Tag = 1011
	TagLicense      Tag = 1014
	TagPackager     Tag = 1015
	TagGroup        Tag = 1016
	TagURL          Tag = 1020
	TagOS           Tag = 1021
	TagArch         Tag = 1022

	TagPreIn     Tag = 1023
	TagPostIn    Tag = 1024
	TagPreUn     Tag = 1025
	TagPostUn    Tag = 1026
	TagPreInProg Tag = 1085
	TagPostInProg Tag = 1086
	TagPreUnProg  Tag = 1087
	TagPostUnProg Tag = 1088

	TagOldFileNames Tag = 1027
	TagFileSizes    Tag = 1028
	TagFileStates   Tag = 1029
	TagFileModes    Tag = 1030
	TagFileUIDs     Tag = 1031
	TagFileGIDs     Tag = 1032
	TagFileRdevs    Tag = 1033
	TagFileMtimes   Tag = 1034
	TagFileMD5s     Tag = 1035
	TagFileLinktos  Tag = 1036
	TagFileFlags    Tag = 1037
	TagFileUserName Tag = 1039
	TagFileGroupName Tag = 1040
	TagSourceRPM    Tag = 1044
	TagArchiveSize  Tag = 1046
	TagProvideName  Tag = 1047
	TagRequireFlags Tag = 1048
	TagRequireName  Tag = 1049
	TagRequireVersion Tag = 1050

	TagConflictFlags   Tag = 1053
	TagConflictName    Tag = 1054
	TagConflictVersion Tag = 1055

	TagRPMVersion Tag = 1064

	TagProvideFlags   Tag = 1112
	TagProvideVersion Tag = 1113
	TagObsoleteName   Tag = 1090
	TagObsoleteFlags  Tag = 1114
	TagObsoleteVersion Tag = 1115

	TagFileDevices Tag = 1095
	TagFileInodes  Tag = 1096
	TagFileLangs   Tag = 1097

	TagDirIndexes Tag = 1116
	TagBasenames  Tag = 1117
	TagDirNames   Tag = 1118

	TagCookie            Tag = 1094
	TagDistURL           Tag = 1123
	TagPayloadFormat     Tag = 1124
	TagPayloadCompressor Tag = 1125
	TagPayloadFlags      Tag = 1126

	TagFileDigestAlgo Tag = 5011
	TagFileVerifyFlags Tag = 1045
	TagFileNLinks     Tag = 5045
	TagLongFileSizes  Tag = 5008
	TagLongSize       Tag = 5009
)

// Signature header tags, see [LSB, 25.2.3].
const (
	TagSigSize        Tag = 1000
	TagSigPayloadSize Tag = 1007
	TagSigSHA1        Tag = 269
	TagSigMD5         Tag = 1004
	TagSigDSA         Tag = 267
	TagSigRSA         Tag = 268
	TagSigPGP         Tag = 1002
	TagSigGPG         Tag = 1005
)

// DeclaredType returns the on-disk Type that tag is conventionally stored
// as, for the subset of tags this core cares about formatting or
// validating. Unknown tags return ok=false; callers fall back to whatever
// Type the entry itself carries (the wire format is self-describing). Nothing
// in this module calls it; headerfmt picks formatters from the entry's own
// Type.
func DeclaredType(tag Tag) (Type, bool) {
	t, ok := declaredTypes[tag]
	return t, ok
}

var declaredTypes = map[Tag]Type{
	TagHeaderI18NTable: StringArrayType,
	TagName:            StringType,
	TagVersion:         StringType,
	TagRelease:         StringType,
	TagEpoch:           Int32Type,
	TagSummary:         I18NStringType,
	TagDescription:     I18NStringType,
	TagBuildTime:       Int32Type,
	TagBuildHost:       StringType,
	TagInstallTime:     Int32Type,
	TagSize:            Int32Type,
	TagDistribution:    StringType,
	TagVendor:          StringType,
	TagLicense:         StringType,
	TagPackager:        StringType,
	TagGroup:           I18NStringType,
	TagURL:             StringType,
	TagOS:              StringType,
	TagArch:            StringType,
	TagPreIn:           StringType,
	TagPostIn:          StringType,
	TagPreUn:           StringType,
	TagPostUn:          StringType,
	TagPreInProg:       StringType,
	TagPostInProg:      StringType,
	TagPreUnProg:       StringType,
	TagPostUnProg:      StringType,
	TagOldFileNames:    StringArrayType,
	TagFileSizes:       Int32Type,
	TagFileStates:      CharType,
	TagFileModes:       Int16Type,
	TagFileUIDs:        Int32Type,
	TagFileGIDs:        Int32Type,
	TagFileRdevs:       Int16Type,
	TagFileMtimes:      Int32Type,
	TagFileMD5s:        StringArrayType,
	TagFileLinktos:     StringArrayType,
	TagFileFlags:       Int32Type,
	TagFileUserName:    StringArrayType,
	TagFileGroupName:   StringArrayType,
	TagSourceRPM:       StringType,
	TagArchiveSize:     Int32Type,
	TagProvideName:     StringArrayType,
	TagRequireFlags:    Int32Type,
	TagRequireName:     StringArrayType,
	TagRequireVersion:  StringArrayType,
	TagConflictFlags:   Int32Type,
	TagConflictName:    StringArrayType,
	TagConflictVersion: StringArrayType,
	TagRPMVersion:      StringType,
	TagProvideFlags:    Int32Type,
	TagProvideVersion:  StringArrayType,
	TagObsoleteName:    StringArrayType,
	TagObsoleteFlags:   Int32Type,
	TagObsoleteVersion: StringArrayType,
	TagFileDevices:     Int32Type,
	TagFileInodes:      Int32Type,
	TagFileLangs:       StringArrayType,
	TagDirIndexes:      Int32Type,
	TagBasenames:       StringArrayType,
	TagDirNames:        StringArrayType,
	TagCookie:          StringType,
	TagDistURL:         StringType,
	TagPayloadFormat:   StringType,
	TagPayloadCompressor: StringType,
	TagPayloadFlags:    StringType,
}

// names returned by Tag.Name and accepted by TagByName (headerfmt keeps its
// own name table for %{NAME} resolution). Grounded on dump-package/impl/rpm.go's
// rpmtagDictFor{Signature,Metadata}Header, the one place in the corpus that
// lists the complete tag space.
var tagNames = map[Tag]string{
	TagHeaderSignatures: "HEADERSIGNATURES",
	TagHeaderImmutable:  "HEADERIMMUTABLE",
	TagHeaderI18NTable:  "HEADERI18NTABLE",
	TagName:             "NAME",
	TagVersion:          "VERSION",
	TagRelease:          "RELEASE",
	TagEpoch:            "EPOCH",
	TagSummary:          "SUMMARY",
	TagDescription:      "DESCRIPTION",
	TagBuildTime:        "BUILDTIME",
	TagBuildHost:        "BUILDHOST",
	TagInstallTime:      "INSTALLTIME",
	TagSize:             "SIZE",
	TagDistribution:     "DISTRIBUTION",
	TagVendor:           "VENDOR",
	TagLicense:          "LICENSE",
	TagPackager:         "PACKAGER",
	TagGroup:            "GROUP",
	TagURL:              "URL",
	TagOS:               "OS",
	TagArch:             "ARCH",
	TagPreIn:            "PREIN",
	TagPostIn:           "POSTIN",
	TagPreUn:            "PREUN",
	TagPostUn:           "POSTUN",
	TagPreInProg:        "PREINPROG",
	TagPostInProg:       "POSTINPROG",
	TagPreUnProg:        "PREUNPROG",
	TagPostUnProg:       "POSTUNPROG",
	TagOldFileNames:     "OLDFILENAMES",
	TagFileSizes:        "FILESIZES",
	TagFileStates:       "FILESTATES",
	TagFileModes:        "FILEMODES",
	TagFileUIDs:         "FILEUIDS",
	TagFileGIDs:         "FILEGIDS",
	TagFileRdevs:        "FILERDEVS",
	TagFileMtimes:       "FILEMTIMES",
	TagFileMD5s:         "FILEMD5S",
	TagFileLinktos:      "FILELINKTOS",
	TagFileFlags:        "FILEFLAGS",
	TagFileUserName:     "FILEUSERNAME",
	TagFileGroupName:    "FILEGROUPNAME",
	TagSourceRPM:        "SOURCERPM",
	TagArchiveSize:      "ARCHIVESIZE",
	TagProvideName:      "PROVIDENAME",
	TagRequireFlags:     "REQUIREFLAGS",
	TagRequireName:      "REQUIRENAME",
	TagRequireVersion:   "REQUIREVERSION",
	TagConflictFlags:    "CONFLICTFLAGS",
	TagConflictName:     "CONFLICTNAME",
	TagConflictVersion:  "CONFLICTVERSION",
	TagRPMVersion:       "RPMVERSION",
	TagProvideFlags:     "PROVIDEFLAGS",
	TagProvideVersion:   "PROVIDEVERSION",
	TagObsoleteName:     "OBSOLETENAME",
	TagObsoleteFlags:    "OBSOLETEFLAGS",
	TagObsoleteVersion:  "OBSOLETEVERSION",
	TagFileDevices:      "FILEDEVICES",
	TagFileInodes:       "FILEINODES",
	TagFileLangs:        "FILELANGS",
	TagDirIndexes:       "DIRINDEXES",
	TagBasenames:        "BASENAMES",
	TagDirNames:         "DIRNAMES",
	TagCookie:           "COOKIE",
	TagDistURL:          "DISTURL",
	TagPayloadFormat:    "PAYLOADFORMAT",
	TagPayloadCompressor: "PAYLOADCOMPRESSOR",
	TagPayloadFlags:     "PAYLOADFLAGS",
}

// Name returns the canonical uppercase tag name, or "" if tag is not in the
// known table
// (an unknown tag can still be read/written; it just prints by number).
func (t Tag) Name() string {
	return tagNames[t]
}

var tagsByName = func() map[string]Tag {
	m := make(map[string]Tag, len(tagNames))
	for tag, name := range tagNames {
		m[name] = tag
	}
	return m
}()

// TagByName is the reverse of Name.
func TagByName(name string) (Tag, bool) {
	tag, ok := tagsByName[name]
	return tag, ok
}
